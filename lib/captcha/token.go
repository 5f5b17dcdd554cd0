package captcha

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

func itoa(i int) string { return strconv.Itoa(i) }

// Payload is the signed part of a token.
type Payload struct {
	Answer   int
	IssuedAt int64
	Nonce    int
}

func (p Payload) String() string {
	return strings.Join([]string{
		itoa(p.Answer),
		strconv.FormatInt(p.IssuedAt, 10),
		itoa(p.Nonce),
	}, Delimiter)
}

func encodeToken(secret Secret, p Payload) string {
	payload := p.String()
	raw := payload + Delimiter + secret.tag(payload)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// splitToken decodes a token into the payload string and the tag that was
// sent with it. The tag is the last field; the payload is everything before.
func splitToken(token string) (payload, tag string, err error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	parts := strings.Split(string(raw), Delimiter)
	if len(parts) < 4 {
		return "", "", fmt.Errorf("%w: want at least 4 parts, got %d", ErrMalformedToken, len(parts))
	}

	tag = parts[len(parts)-1]
	payload = strings.Join(parts[:len(parts)-1], Delimiter)
	return payload, tag, nil
}

func parsePayload(payload string) (Payload, error) {
	fields := strings.Split(payload, Delimiter)
	if len(fields) < 3 {
		return Payload{}, fmt.Errorf("%w: want 3 payload fields, got %d", ErrMalformedToken, len(fields))
	}

	answer, err := strconv.Atoi(fields[0])
	if err != nil {
		return Payload{}, fmt.Errorf("%w: answer: %w", ErrMalformedToken, err)
	}

	issuedAt, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: issuedAt: %w", ErrMalformedToken, err)
	}

	nonce, err := strconv.Atoi(fields[2])
	if err != nil {
		return Payload{}, fmt.Errorf("%w: nonce: %w", ErrMalformedToken, err)
	}

	return Payload{Answer: answer, IssuedAt: issuedAt, Nonce: nonce}, nil
}
