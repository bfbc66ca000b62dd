package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/client"
	"github.com/kmmelissat/analisis-al-instante-sub001/internal/config"
	"github.com/kmmelissat/analisis-al-instante-sub001/internal/persist"
	"github.com/kmmelissat/analisis-al-instante-sub001/internal/store"
	"github.com/kmmelissat/analisis-al-instante-sub001/internal/workflow"
)

// Session is the restored client state for one command invocation.
type Session struct {
	Cfg      *config.AppConfig
	Store    *store.Store
	Workflow *workflow.Workflow
	Adapter  *persist.Adapter
	Restored bool

	kv persist.KV
}

// openSession restores the saved state and wires the workflow around it.
// Every store change made through the session is saved as it happens.
func openSession(cmd *cobra.Command) (*Session, func(), error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	kv, err := persist.OpenKV(cfg.Persistence.Backend, cfg.Persistence.Directory)
	if err != nil {
		return nil, nil, err
	}
	codec, err := persist.CodecByName(cfg.Persistence.Codec)
	if err != nil {
		kv.Close()
		return nil, nil, err
	}

	adapter := persist.NewAdapter(kv, persist.WithCodec(codec), persist.WithKey(cfg.Persistence.NamespaceKey))
	st, restored := adapter.Open(cmd.Context())

	backend := client.New(cfg.Client.BackendURL,
		client.WithTimeout(time.Duration(cfg.Client.RequestTimeoutSeconds)*time.Second),
		client.WithUploadField(cfg.Client.UploadField),
	)

	s := &Session{
		Cfg:      cfg,
		Store:    st,
		Workflow: workflow.New(st, backend),
		Adapter:  adapter,
		Restored: restored,
		kv:       kv,
	}

	cleanup := func() {
		adapter.Detach()
		if err := adapter.LastError(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: session state may not be saved: %v\n", err)
		}
		_ = kv.Close()
	}
	return s, cleanup, nil
}

// withSession runs fn inside an opened session.
func withSession(cmd *cobra.Command, fn func(s *Session) error) error {
	s, cleanup, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(s)
}
