package parsers

import (
	"io"

	"github.com/username/kryptogain/backend/src/models"
)

// Parser reads one exchange export dialect and produces canonical
// transactions. Classification to BUY/SELL happens later, at the
// normalization boundary.
type Parser interface {
	Parse(file io.Reader) ([]models.CanonicalTransaction, error)
}
