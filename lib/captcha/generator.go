package captcha

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Options configures a Generator or a Verifier. Only Secret is required.
type Options struct {
	Secret Secret

	// Now defaults to time.Now.
	Now func() time.Time

	// Rand defaults to the math/rand/v2 global source.
	Rand Rand

	// Recorder defaults to NopRecorder.
	Recorder Recorder

	// StoreTimeout bounds each Recorder call. Defaults to DefaultStoreTimeout.
	StoreTimeout time.Duration

	Logger *slog.Logger
}

func (o Options) withDefaults() (Options, error) {
	if o.Secret.IsZero() {
		return o, ErrNoSecret
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Rand == nil {
		o.Rand = globalRand{}
	}
	if o.Recorder == nil {
		o.Recorder = NopRecorder{}
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = DefaultStoreTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	o.Logger = o.Logger.With("subsystem", "captcha")
	return o, nil
}

// Generator mints challenges.
type Generator struct {
	opts    Options
	pending sync.WaitGroup
}

// NewGenerator fails only when no secret is configured. That is a startup
// error; Generate itself cannot fail.
func NewGenerator(opts Options) (*Generator, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Generator{opts: opts}, nil
}

// NewChallenge draws a puzzle without signing it.
func (g *Generator) NewChallenge() Challenge {
	r := g.opts.Rand

	c := Challenge{
		OperandA: between(r, MinOperand, MaxOperand),
		OperandB: between(r, MinOperand, MaxOperand),
		Operator: OpAdd,
	}

	if r.IntN(2) == 1 {
		c.Operator = OpSub
	}

	switch c.Operator {
	case OpAdd:
		c.Answer = c.OperandA + c.OperandB
	case OpSub:
		if c.OperandA < c.OperandB {
			c.OperandA, c.OperandB = c.OperandB, c.OperandA
		}
		c.Answer = c.OperandA - c.OperandB
	}

	c.IssuedAt = g.opts.Now().Unix()
	c.Nonce = between(r, MinNonce, MaxNonce)

	return c
}

// Generate returns a new question and its signed token.
func (g *Generator) Generate(ctx context.Context) Issued {
	c := g.NewChallenge()

	token := encodeToken(g.opts.Secret, Payload{
		Answer:   c.Answer,
		IssuedAt: c.IssuedAt,
		Nonce:    c.Nonce,
	})

	g.record(ctx, token, Record{Answer: c.Answer, IssuedAt: c.IssuedAt})
	issuedTotal.Inc()

	return Issued{
		Question: c.Question(),
		Token:    token,
	}
}

// record writes the secondary record in the background. Generate never
// waits on the store.
func (g *Generator) record(ctx context.Context, token string, rec Record) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.opts.StoreTimeout)

	g.pending.Add(1)
	go func() {
		defer g.pending.Done()
		defer cancel()

		if err := g.opts.Recorder.Put(ctx, RecordKey(token), rec, TTL); err != nil {
			recorderErrors.WithLabelValues("put").Inc()
			g.opts.Logger.Warn("can't record issued challenge, continuing", "err", err)
		}
	}()
}

// Wait blocks until every background record write has finished. Call it
// on shutdown.
func (g *Generator) Wait() {
	g.pending.Wait()
}
