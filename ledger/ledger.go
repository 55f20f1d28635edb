// Package ledger keeps a local record of contracts deployed through the CLI
// and exports it as CSV, JSON or plain text.
package ledger

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileName is the ledger file name inside the agxcl home directory.
const FileName = "deployments.json"

const timeLayout = "2006-01-02 15:04:05"

// Kind is the type of contract an entry refers to.
type Kind string

const (
	KindToken    Kind = "token"
	KindNFT      Kind = "nft"
	KindContract Kind = "contract"
)

// Entry is one deployment.
type Entry struct {
	ID              string    `json:"id"`
	Kind            Kind      `json:"kind"`
	Name            string    `json:"name,omitempty"`
	Symbol          string    `json:"symbol,omitempty"`
	ContractAddress string    `json:"contract_address"`
	TxHash          string    `json:"tx_hash"`
	BlockNumber     uint64    `json:"block_number"`
	Network         string    `json:"network"`
	ChainID         string    `json:"chain_id"`
	CreatedAt       time.Time `json:"created_at"`
}

type file struct {
	Entries []Entry `json:"entries"`
}

// Ledger is a JSON file of entries. Writes replace the file atomically.
type Ledger struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Open returns the ledger stored at path, creating its directory if needed.
// A missing file is an empty ledger.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	l := &Ledger{path: path, now: time.Now}
	if _, err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// Path returns the ledger file path.
func (l *Ledger) Path() string {
	return l.path
}

// Record appends e with a fresh ID and timestamp and returns the stored entry.
func (l *Ledger) Record(e Entry) (Entry, error) {
	if e.ContractAddress == "" {
		return Entry{}, errors.New("contract address is required")
	}
	if e.Kind == "" {
		e.Kind = KindContract
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.load()
	if err != nil {
		return Entry{}, err
	}
	e.ID = uuid.NewString()
	e.CreatedAt = l.now().UTC().Truncate(time.Second)
	f.Entries = append(f.Entries, e)
	if err := l.save(f); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// List returns all entries in insertion order.
func (l *Ledger) List() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.load()
	if err != nil {
		return nil, err
	}
	return f.Entries, nil
}

func (l *Ledger) load() (*file, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return &file{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	var f file
	if len(strings.TrimSpace(string(data))) == 0 {
		return &f, nil
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse ledger: %w", err)
	}
	return &f, nil
}

func (l *Ledger) save(f *file) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".deployments-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set ledger permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}

var csvHeader = []string{"ID", "Kind", "Name", "Symbol", "Contract Address", "Tx Hash", "Block", "Network", "Chain ID", "Created At"}

// ExportCSV writes entries as CSV with a header row.
func ExportCSV(w io.Writer, entries []Entry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writer.Write([]string{
			e.ID,
			string(e.Kind),
			e.Name,
			e.Symbol,
			e.ContractAddress,
			e.TxHash,
			strconv.FormatUint(e.BlockNumber, 10),
			e.Network,
			e.ChainID,
			e.CreatedAt.Format(timeLayout),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// export document
type export struct {
	ExportDate  string  `json:"export_date"`
	Total       int     `json:"total"`
	Deployments []Entry `json:"deployments"`
}

// ExportJSON writes entries as an indented JSON document.
func ExportJSON(w io.Writer, entries []Entry, exportedAt time.Time) error {
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export{
		ExportDate:  exportedAt.Format(timeLayout),
		Total:       len(entries),
		Deployments: entries,
	})
}

// ExportTXT writes a human readable report.
func ExportTXT(w io.Writer, entries []Entry, exportedAt time.Time) error {
	var content strings.Builder
	content.WriteString("AGXCL DEPLOYMENTS EXPORT\n")
	content.WriteString("========================\n\n")
	content.WriteString(fmt.Sprintf("Export Date: %s\n", exportedAt.Format(timeLayout)))
	content.WriteString(fmt.Sprintf("Deployments: %d\n", len(entries)))

	for i, e := range entries {
		label := string(e.Kind)
		if e.Name != "" {
			label = fmt.Sprintf("%s %s (%s)", e.Kind, e.Name, e.Symbol)
		}
		content.WriteString(fmt.Sprintf("\n  %d. %s\n", i+1, label))
		content.WriteString(fmt.Sprintf("     Address: %s\n", e.ContractAddress))
		content.WriteString(fmt.Sprintf("     Tx: %s | Block: %d\n", e.TxHash, e.BlockNumber))
		content.WriteString(fmt.Sprintf("     Network: %s (%s) | Time: %s\n", strings.ToUpper(e.Network), e.ChainID, e.CreatedAt.Format(timeLayout)))
	}

	_, err := io.WriteString(w, content.String())
	return err
}
