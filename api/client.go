package api

// AGXCL RPC client-
//
// Files:
//   config.go    - Config, network presets, env and YAML network definitions
//   types.go     - Result types and per-endpoint request/response schemas
//   errors.go    - Error, Kind and the sentinels used with errors.Is
//   retry.go     - RetryPolicy and backoff for idempotent reads
//   base.go      - Client struct, options, request helper
//   contract.go  - Deploy, query, execute, receipt, balance, gas estimate
//
// Usage:
//   client, err := api.NewClient(api.MainnetConfig)                    // from base.go
//   deployment, err := client.DeployContract(ctx, code, nil)           // from contract.go
//   result := client.QueryContract(ctx, addr, "balanceOf", []any{acct}) // never errors; check result.Success
//   tx, err := client.ExecuteTransaction(ctx, addr, "transfer", args, "0")
