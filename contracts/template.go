package contracts

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ErrInvalidTemplateParam is returned when a name, symbol or supply cannot be
// interpolated into contract source safely.
var ErrInvalidTemplateParam = errors.New("invalid contract template parameter")

const maxNameLength = 64

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,16}$`)

var tokenTemplate = template.Must(template.New("token").Parse(`
contract Token {
  state {
    string name = "{{.Name}}";
    string symbol = "{{.Symbol}}";
    uint256 totalSupply = {{.TotalSupply}};
    mapping(address => uint256) balances;
    mapping(address => mapping(address => uint256)) allowances;
  }

  constructor() {
    balances[msg.sender] = totalSupply;
  }

  function balanceOf(address account) public view returns (uint256) {
    return balances[account];
  }

  function transfer(address to, uint256 amount) public returns (bool) {
    require(balances[msg.sender] >= amount, "Insufficient balance");
    balances[msg.sender] -= amount;
    balances[to] += amount;
    emit Transfer(msg.sender, to, amount);
    return true;
  }

  function approve(address spender, uint256 amount) public returns (bool) {
    allowances[msg.sender][spender] = amount;
    emit Approval(msg.sender, spender, amount);
    return true;
  }

  function transferFrom(address from, address to, uint256 amount) public returns (bool) {
    require(balances[from] >= amount, "Insufficient balance");
    require(allowances[from][msg.sender] >= amount, "Insufficient allowance");
    balances[from] -= amount;
    balances[to] += amount;
    allowances[from][msg.sender] -= amount;
    emit Transfer(from, to, amount);
    return true;
  }

  event Transfer(address indexed from, address indexed to, uint256 value);
  event Approval(address indexed owner, address indexed spender, uint256 value);
}
`))

var nftTemplate = template.Must(template.New("nft").Parse(`
contract NFT {
  state {
    string name = "{{.Name}}";
    string symbol = "{{.Symbol}}";
    uint256 nextTokenId = 1;
    mapping(uint256 => address) owners;
    mapping(uint256 => string) tokenURIs;
    mapping(address => uint256) balances;
  }

  function mint(address to, string memory uri) public returns (uint256) {
    uint256 tokenId = nextTokenId++;
    owners[tokenId] = to;
    tokenURIs[tokenId] = uri;
    balances[to]++;
    emit Mint(to, tokenId, uri);
    return tokenId;
  }

  function ownerOf(uint256 tokenId) public view returns (address) {
    return owners[tokenId];
  }

  function tokenURI(uint256 tokenId) public view returns (string memory) {
    return tokenURIs[tokenId];
  }

  function balanceOf(address owner) public view returns (uint256) {
    return balances[owner];
  }

  event Mint(address indexed to, uint256 indexed tokenId, string uri);
}
`))

type templateParams struct {
	Name        string
	Symbol      string
	TotalSupply string
}

// TokenSource renders the token contract source for the given parameters.
func TokenSource(name, symbol, totalSupply string) (string, error) {
	if err := validateIdentity(name, symbol); err != nil {
		return "", err
	}
	supply, err := validateSupply(totalSupply)
	if err != nil {
		return "", err
	}
	return render(tokenTemplate, templateParams{Name: name, Symbol: symbol, TotalSupply: supply})
}

// NFTSource renders the NFT contract source for the given parameters.
func NFTSource(name, symbol string) (string, error) {
	if err := validateIdentity(name, symbol); err != nil {
		return "", err
	}
	return render(nftTemplate, templateParams{Name: name, Symbol: symbol})
}

func render(tmpl *template.Template, params templateParams) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, params); err != nil {
		return "", fmt.Errorf("failed to render %s contract: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}

func validateIdentity(name, symbol string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidTemplateParam)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name is not valid UTF-8", ErrInvalidTemplateParam)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidTemplateParam, maxNameLength)
	}
	for _, r := range name {
		if r == '"' || r == '\\' || r == '{' || r == '}' || unicode.IsControl(r) || !unicode.IsPrint(r) {
			return fmt.Errorf("%w: name contains %q", ErrInvalidTemplateParam, r)
		}
	}
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: symbol %q must be 1-16 letters or digits", ErrInvalidTemplateParam, symbol)
	}
	return nil
}

// validateSupply accepts a non-negative integer and returns its canonical
// decimal form.
func validateSupply(supply string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(supply))
	if err != nil {
		return "", fmt.Errorf("%w: total supply %q is not a number", ErrInvalidTemplateParam, supply)
	}
	if d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return "", fmt.Errorf("%w: total supply %q must be a non-negative integer", ErrInvalidTemplateParam, supply)
	}
	return d.String(), nil
}
