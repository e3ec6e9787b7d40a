package parsers

import (
	"fmt"

	"github.com/username/kryptogain/backend/src/parsers/generic"
	"github.com/username/kryptogain/backend/src/parsers/kraken"
)

// GetParser selects the parser for an explicitly named source dialect.
// Dialect auto-detection is deliberately not attempted.
func GetParser(source string) (Parser, error) {
	switch source {
	case "generic":
		return generic.NewParser(), nil
	case "kraken":
		return kraken.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}
