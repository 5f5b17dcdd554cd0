// Package captcha issues and verifies the stateless arithmetic challenges
// that guard the public contact form.
//
// A challenge is a small sum or difference such as "12 + 7". Its expected
// answer, issue time and a nonce are signed with HMAC-SHA256 and handed to
// the client as an opaque token:
//
//	base64("{answer}_{issuedAt}_{nonce}_{hex(hmac)}")
//
// The token carries all the state needed to verify it later, so any site
// process holding the same Secret can verify a token issued by any other.
// An optional Recorder mirrors issued challenges into a short-lived store,
// but nothing ever depends on that record being present.
package captcha

import "time"

const (
	// MinOperand and MaxOperand bound both operands, inclusive.
	MinOperand = 5
	MaxOperand = 20

	// MinNonce and MaxNonce bound the nonce mixed into every token, inclusive.
	MinNonce = 1000
	MaxNonce = 9999

	// Delimiter separates the token fields and the trailing tag.
	Delimiter = "_"

	// TTL is how long after issuance a token is still accepted.
	TTL = 300 * time.Second

	// DefaultStoreTimeout bounds every Recorder call.
	DefaultStoreTimeout = 250 * time.Millisecond
)

// Operator is the arithmetic operation of a challenge.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
)

// Challenge is a single arithmetic puzzle. It only exists while a token is
// being minted; afterwards the token is the only copy.
type Challenge struct {
	OperandA int
	OperandB int
	Operator Operator
	Answer   int
	IssuedAt int64
	Nonce    int
}

// Question is the human readable form of the puzzle, such as "12 + 7".
func (c Challenge) Question() string {
	return itoa(c.OperandA) + " " + string(c.Operator) + " " + itoa(c.OperandB)
}

// Issued is what the client gets back from the challenge endpoint.
type Issued struct {
	Question string `json:"question"`
	Token    string `json:"token"`
}
