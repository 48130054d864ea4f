package console

import (
	"context"
	"sync"
	"time"
)

// Config sizes a Console.
type Config struct {
	// OperationTimeout bounds each workflow operation. Zero means DefaultOperationTimeout.
	OperationTimeout time.Duration
	// MaxFileBytes bounds the ingest buffer. Zero means DefaultMaxFileBytes.
	MaxFileBytes int64
	// Saver receives exported blobs. Nil means the working directory.
	Saver Saver
}

// Console is one interactive session: a live profile plus the two workflows.
type Console struct {
	remote Remote
	export *ExportWorkflow
	ingest *IngestWorkflow
	task   *task

	mu      sync.RWMutex
	profile Profile
}

// New wires the workflows to r. The profile's token authenticates r from
// here on.
func New(r Remote, profile Profile, cfg Config) *Console {
	r.SetToken(profile.Token)
	saver := cfg.Saver
	if saver == nil {
		saver = DirSaver{Dir: "."}
	}
	return &Console{
		remote:  r,
		export:  NewExportWorkflow(r, saver, cfg.OperationTimeout),
		ingest:  NewIngestWorkflow(r, cfg.MaxFileBytes, cfg.OperationTimeout),
		task:    newTask(cfg.OperationTimeout),
		profile: profile,
	}
}

func (c *Console) Export() *ExportWorkflow { return c.export }
func (c *Console) Ingest() *IngestWorkflow { return c.ingest }

// Profile returns the live profile.
func (c *Console) Profile() Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile
}

// SetProfile replaces the live profile. A changed token applies to the next
// remote call of either workflow.
func (c *Console) SetProfile(p Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.Token != c.profile.Token {
		c.remote.SetToken(p.Token)
	}
	c.profile = p
}

// TestConnection asks the boundary to open the store described by the live
// profile and run a trivial query. It returns the boundary's message.
func (c *Console) TestConnection(ctx context.Context) (string, error) {
	p := c.Profile()
	if err := p.Validate(); err != nil {
		return "", fail("test connection", err)
	}

	ctx, end, err := c.task.begin(ctx)
	if err != nil {
		return "", fail("test connection", err)
	}
	defer end()

	msg, err := c.remote.Ping(ctx, p.PingRequest())
	if err != nil {
		return "", fail("test connection", err)
	}
	return msg, nil
}
