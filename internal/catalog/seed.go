package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Category    string `yaml:"category"`
	Image       string `yaml:"image"`
	UserID      string `yaml:"user_id"`
	CreatedAt   string `yaml:"created_at"`
}

// DefaultSeed returns the built-in catalog.
func DefaultSeed() []Product {
	p, err := decodeSeed(defaultSeed)
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in seed: %v", err))
	}
	return p
}

// LoadSeed reads a YAML seed file. An empty path yields DefaultSeed.
func LoadSeed(path string) ([]Product, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSeed(f)
}

func ReadSeed(r io.Reader) ([]Product, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decodeSeed(raw)
}

// decodeSeed only checks that fields parse; categories and lengths are
// taken as given.
func decodeSeed(raw []byte) ([]Product, error) {
	var sf seedFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	out := make([]Product, 0, len(sf.Products))
	for i, sp := range sf.Products {
		if sp.ID == "" {
			return nil, fmt.Errorf("seed product %d: missing id", i)
		}
		price, err := decimal.NewFromString(sp.Price)
		if err != nil {
			return nil, fmt.Errorf("seed product %s: price: %w", sp.ID, err)
		}
		var created time.Time
		if sp.CreatedAt != "" {
			if created, err = parseDate(sp.CreatedAt); err != nil {
				return nil, fmt.Errorf("seed product %s: created_at: %w", sp.ID, err)
			}
		}
		out = append(out, Product{
			ID:          sp.ID,
			Title:       sp.Title,
			Description: sp.Description,
			Price:       price,
			Category:    Category(sp.Category),
			Image:       sp.Image,
			OwnerID:     sp.UserID,
			CreatedAt:   created,
		})
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
