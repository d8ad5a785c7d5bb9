package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"clipthread/internal/config"
	"clipthread/pkg/logger"
)

// program adapts serve to the service manager's Start/Stop lifecycle.
type program struct {
	cfg    *config.Config
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (p *program) Start(s service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := serve(ctx, p.cfg); err != nil {
			logger.Error("Server exited", "error", err)
		}
	}()
	return nil
}

func (p *program) Stop(s service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	logger.Sync()
	return nil
}

func serviceConfig() *service.Config {
	args := []string{"service", "run"}
	if cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}
	return &service.Config{
		Name:        "clipthread",
		DisplayName: "clipthread",
		Description: "Turns short-form video links into researched, cited post drafts.",
		Arguments:   args,
	}
}

func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Install and control clipthread as an OS service",
	}

	control := func(action string) *cobra.Command {
		return &cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the clipthread service", action),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := service.New(&program{}, serviceConfig())
				if err != nil {
					return err
				}
				if err := service.Control(s, action); err != nil {
					return fmt.Errorf("service %s failed: %w", action, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "service %s: ok\n", action)
				return nil
			},
		}
	}
	for _, action := range service.ControlAction {
		cmd.AddCommand(control(action))
	}

	cmd.AddCommand(&cobra.Command{
		Use:    "run",
		Short:  "Run under the service manager",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := service.New(&program{cfg: cfg}, serviceConfig())
			if err != nil {
				return err
			}
			return s.Run()
		},
	})
	return cmd
}
