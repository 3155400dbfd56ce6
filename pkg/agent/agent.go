// Package agent invokes the generative text agent and shapes its output
// into paragraphs.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/typerush/textsvc/pkg/models"
)

var (
	// ErrAgentUnavailable is returned when no agent is configured.
	ErrAgentUnavailable = errors.New("agent not configured")
	// ErrAgentInvocation is returned when the remote agent call fails.
	ErrAgentInvocation = errors.New("agent invocation failed")
)

// TriggerInput is the fixed prompt sent to the agent; the agent's
// instructions define what it writes.
const TriggerInput = "trigger"

// Agent produces a fresh set of paragraphs per call.
type Agent interface {
	Invoke(ctx context.Context) (models.BedrockResult, error)
}

// Unavailable is the Agent used when none is configured.
type Unavailable struct{}

// Invoke always fails with ErrAgentUnavailable.
func (Unavailable) Invoke(context.Context) (models.BedrockResult, error) {
	return models.BedrockResult{}, ErrAgentUnavailable
}

// Config identifies the agent to call.
type Config struct {
	Region  string
	AgentID string
	AliasID string
	// RequestsPerMinute caps invocations; 0 means unlimited.
	RequestsPerMinute int
}

// Configured reports whether both identifiers are present.
func (c Config) Configured() bool {
	return c.AgentID != "" && c.AliasID != ""
}

// RuntimeAPI is the subset of the Bedrock agent runtime client used here.
type RuntimeAPI interface {
	InvokeAgent(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error)
}

// Bedrock calls a Bedrock agent alias.
type Bedrock struct {
	api     RuntimeAPI
	agentID string
	aliasID string
	limiter *rate.Limiter
}

// New returns a Bedrock agent, or Unavailable if cfg does not name one.
func New(ctx context.Context, cfg Config) (Agent, error) {
	if !cfg.Configured() {
		return Unavailable{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(bedrockagentruntime.NewFromConfig(awsCfg), cfg), nil
}

// NewWithClient wraps an existing runtime client.
func NewWithClient(api RuntimeAPI, cfg Config) *Bedrock {
	b := &Bedrock{api: api, agentID: cfg.AgentID, aliasID: cfg.AliasID}
	if cfg.RequestsPerMinute > 0 {
		b.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return b
}

// Invoke opens a new agent session, reads the whole completion stream and
// splits it into up to three paragraphs.
func (b *Bedrock) Invoke(ctx context.Context) (models.BedrockResult, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return models.BedrockResult{}, fmt.Errorf("%w: rate limit: %w", ErrAgentInvocation, err)
		}
	}

	sessionID := uuid.NewString()
	out, err := b.api.InvokeAgent(ctx, &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(b.agentID),
		AgentAliasId: aws.String(b.aliasID),
		SessionId:    aws.String(sessionID),
		InputText:    aws.String(TriggerInput),
	})
	if err != nil {
		return models.BedrockResult{}, fmt.Errorf("%w: %w", ErrAgentInvocation, err)
	}

	stream := out.GetStream()
	defer stream.Close()

	text := collectChunks(stream.Events())
	if err := stream.Err(); err != nil {
		return models.BedrockResult{}, fmt.Errorf("%w: read stream: %w", ErrAgentInvocation, err)
	}

	p1, p2, p3 := SplitParagraphs(text)
	return models.BedrockResult{SessionID: sessionID, Para1: p1, Para2: p2, Para3: p3}, nil
}

// collectChunks concatenates chunk payloads until the stream closes. Bytes
// are joined before decoding so multi-byte runes split across chunks survive.
func collectChunks(events <-chan types.ResponseStream) string {
	var buf []byte
	for ev := range events {
		if chunk, ok := ev.(*types.ResponseStreamMemberChunk); ok {
			buf = append(buf, chunk.Value.Bytes...)
		}
	}
	return strings.ToValidUTF8(string(buf), "\uFFFD")
}

// SplitParagraphs splits text on blank lines, drops empty segments and
// returns the first three. Missing paragraphs are empty strings.
func SplitParagraphs(text string) (p1, p2, p3 string) {
	var parts []string
	for _, p := range strings.Split(text, "\n\n") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	at := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return at(0), at(1), at(2)
}
