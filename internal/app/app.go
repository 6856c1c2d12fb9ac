package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ih-go/internal/blob"
	"ih-go/internal/bus"
	"ih-go/internal/config"
	"ih-go/internal/database"
	"ih-go/internal/encryption"
	"ih-go/internal/ih"
	"ih-go/internal/model"
)

// IHApp is the application layer between the CLI and IHService.
// It constructs all dependencies from config, exposes the operations that
// need raw file paths, and releases the store and log file on Close.
type IHApp struct {
	cfg     *config.Config
	store   *database.SQLiteStore
	bus     *bus.Bus
	blobs   ih.BlobStore
	sealed  *blob.EncryptedStore // nil when encryption is off
	service *ih.IHService
	logger  ih.Logger
	session string
	logFile *os.File

	stopFeed context.CancelFunc
	feedDone chan struct{}
}

// NewIHApp creates a fully wired IHApp from the given config.
// command names the CLI command being run and is logged with the session.
// The caller must call Close when done.
func NewIHApp(ctx context.Context, cfg *config.Config, command string) (*IHApp, error) {
	session := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, session)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	a, err := wire(ctx, cfg, log)
	if err != nil {
		logFile.Close()
		return nil, err
	}
	a.session = session
	a.logFile = logFile

	log.Debug("session started", "command", command, "instance", cfg.InstanceID)
	return a, nil
}

// wire builds the dependency graph without touching the log directory.
func wire(ctx context.Context, cfg *config.Config, logger ih.Logger) (*IHApp, error) {
	store, err := database.NewStoreFromConfig(cfg.Database, ih.RealClock{}, ih.UUIDGenerator{})
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	blobs, err := blob.NewBlobStoreFromConfig(ctx, cfg.BlobStore)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating blob store: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	var sealed *blob.EncryptedStore
	if enc != nil {
		sealed = blob.NewEncryptedStore(blobs, enc)
		blobs = sealed
	}

	b := bus.New(store, logger)
	store.SetPublisher(b)

	catalog := store.Catalog()
	resumes := ih.NewResumeAdapter(blobs, cfg.Resume.MaxSize)
	svc := ih.NewIHService(store, b, catalog, catalog, resumes, logger)
	svc.SetMinNotesLength(cfg.Review.MinNotesLength)

	return &IHApp{
		cfg:     cfg,
		store:   store,
		bus:     b,
		blobs:   blobs,
		sealed:  sealed,
		service: svc,
		logger:  logger,
	}, nil
}

// Service returns the transition engine.
func (a *IHApp) Service() *ih.IHService { return a.service }

// Catalog returns the posting and profile catalog.
func (a *IHApp) Catalog() *database.SQLiteCatalog { return a.store.Catalog() }

// Store returns the application store.
func (a *IHApp) Store() *database.SQLiteStore { return a.store }

// Encrypted reports whether resume blobs are encrypted at rest. Reading them
// back then requires Unlock.
func (a *IHApp) Encrypted() bool { return a.sealed != nil }

// Unlock unlocks the private key for reading encrypted blobs.
// It is a no-op when encryption is off.
func (a *IHApp) Unlock(passphrase string) error {
	if a.sealed == nil {
		return nil
	}
	return a.sealed.Unlock(passphrase)
}

// UploadResume stores the file at rawPath in the blob store and returns a
// reference that can be attached to an application.
func (a *IHApp) UploadResume(ctx context.Context, rawPath string) (ih.ResumeRef, error) {
	path, err := filepath.Abs(rawPath)
	if err != nil {
		return ih.ResumeRef{}, fmt.Errorf("resolving path: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return ih.ResumeRef{}, fmt.Errorf("opening resume: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ih.ResumeRef{}, fmt.Errorf("stat resume: %w", err)
	}
	if !info.Mode().IsRegular() {
		return ih.ResumeRef{}, fmt.Errorf("%s is not a regular file", path)
	}
	if limit := a.cfg.Resume.MaxSize; limit > 0 && info.Size() > limit {
		return ih.ResumeRef{}, fmt.Errorf("resume is %d bytes, limit is %d: %w", info.Size(), limit, ih.ErrValidation)
	}

	ref, err := a.blobs.Put(ctx, f, info.Size())
	if err != nil {
		return ih.ResumeRef{}, fmt.Errorf("storing resume: %w", err)
	}
	return ih.ResumeRef{Ref: ref, FileName: filepath.Base(path)}, nil
}

// SaveResume writes the resume attached to application id into dir and
// returns the written path.
func (a *IHApp) SaveResume(ctx context.Context, id, dir string) (string, error) {
	att, err := a.service.OpenResume(ctx, id)
	if err != nil {
		return "", err
	}
	name := filepath.Base(att.FileName)
	if name == "." || name == string(filepath.Separator) {
		name = id
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, att.Data, 0600); err != nil {
		return "", fmt.Errorf("writing resume: %w", err)
	}
	return path, nil
}

// Watch opens a live list for one scope: "student", "posting" or "company".
func (a *IHApp) Watch(ctx context.Context, scope, key string, filter model.Status) (*ih.Projector, error) {
	var (
		stream ih.ListStream
		err    error
	)
	switch scope {
	case "student":
		stream, err = a.service.SubscribeByStudent(ctx, key)
	case "posting":
		stream, err = a.service.SubscribeByPosting(ctx, key)
	case "company":
		stream, err = a.service.SubscribeByCompany(ctx, key)
	default:
		return nil, fmt.Errorf("unknown scope %q: want student, posting or company", scope)
	}
	if err != nil {
		return nil, err
	}
	return ih.NewProjector(stream, filter), nil
}

// Follow starts forwarding changes written by other processes into live
// views until ctx is done or the app is closed. It does nothing for an
// in-memory database, which no other process can reach.
func (a *IHApp) Follow(ctx context.Context, interval time.Duration) {
	if a.stopFeed != nil || a.store.Path() == ":memory:" {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.stopFeed = cancel
	a.feedDone = make(chan struct{})

	feed := database.NewFeed(a.store, a.bus, interval, a.logger)
	go func() {
		defer close(a.feedDone)
		feed.Run(ctx)
	}()
}

// ValidateSetup checks that the blob store is reachable.
func (a *IHApp) ValidateSetup(ctx context.Context) error {
	return a.blobs.ValidateSetup(ctx)
}

// Session returns the identifier stamped on this run's log lines.
func (a *IHApp) Session() string { return a.session }

// Close ends live subscriptions and closes the store and log file.
func (a *IHApp) Close() error {
	var firstErr error

	if a.stopFeed != nil {
		a.stopFeed()
		<-a.feedDone
	}
	a.bus.Close()
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
