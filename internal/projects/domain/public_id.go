package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const ProjectIDPrefix = "qc"

// one draw covers both groups: 90000 five-digit by 9000 four-digit values
var projectIDSpace = big.NewInt(90000 * 9000)

// NewProjectID returns a public project id such as "qc-12345-6789".
func NewProjectID() (string, error) {
	n, err := rand.Int(rand.Reader, projectIDSpace)
	if err != nil {
		return "", fmt.Errorf("project id: %w", err)
	}
	v := n.Int64()
	return fmt.Sprintf("%s-%05d-%04d", ProjectIDPrefix, 10000+v/9000, 1000+v%9000), nil
}
