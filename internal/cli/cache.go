package cli

import (
	"time"

	"github.com/JonMunkholm/banboard/internal/bootstrap"
	"github.com/JonMunkholm/banboard/internal/cache"
	"github.com/spf13/cobra"
)

// StatusView is the printable form of cache.Status.
type StatusView struct {
	Backend string    `json:"backend" yaml:"backend"`
	Exists  bool      `json:"exists" yaml:"exists"`
	Fresh   bool      `json:"fresh" yaml:"fresh"`
	Age     string    `json:"age,omitempty" yaml:"age,omitempty"`
	TTL     string    `json:"ttl" yaml:"ttl"`
	ModTime time.Time `json:"mod_time,omitzero" yaml:"mod_time,omitempty"`
	Size    int64     `json:"size_bytes" yaml:"size_bytes"`
}

func newStatusView(backend string, st cache.Status) StatusView {
	v := StatusView{
		Backend: backend,
		Exists:  st.Exists,
		Fresh:   st.Fresh,
		TTL:     st.TTL.String(),
		ModTime: st.ModTime,
		Size:    st.Size,
	}
	if st.Exists {
		v.Age = st.Age.Round(time.Second).String()
	}
	return v
}

// RefreshView reports a forced refresh.
type RefreshView struct {
	Records int        `json:"records" yaml:"records"`
	Status  StatusView `json:"status" yaml:"status"`
}

// withPipeline opens the configured pipeline for the duration of fn.
func (a *app) withPipeline(cmd *cobra.Command, fn func(cfgBackend string, p *bootstrap.Pipeline) error) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	p, err := bootstrap.Build(cmd.Context(), cfg, a.fetcher(cfg), nil)
	if err != nil {
		return err
	}
	defer p.Close()

	return fn(cfg.Cache.Backend, p)
}

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print records through the cache, fetching only when stale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPipeline(cmd, func(_ string, p *bootstrap.Pipeline) error {
				records, err := p.Gateway.GetCurrent(cmd.Context())
				if err != nil {
					return err
				}
				return render(out(cmd), a.flags.format, records)
			})
		},
	}
}

func (a *app) newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refetch the sheet into the cache regardless of age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPipeline(cmd, func(backend string, p *bootstrap.Pipeline) error {
				records, err := p.Gateway.Refresh(cmd.Context())
				if err != nil {
					return err
				}
				st, err := p.Gateway.Status(cmd.Context())
				if err != nil {
					return err
				}
				return render(out(cmd), a.flags.format, RefreshView{
					Records: len(records),
					Status:  newStatusView(backend, st),
				})
			})
		},
	}
}

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the cached snapshot exists and is fresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPipeline(cmd, func(backend string, p *bootstrap.Pipeline) error {
				st, err := p.Gateway.Status(cmd.Context())
				if err != nil {
					return err
				}
				return render(out(cmd), a.flags.format, newStatusView(backend, st))
			})
		},
	}
}
