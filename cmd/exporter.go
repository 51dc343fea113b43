package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/igraph100/DW-Spectrum/internal/config"
	"github.com/igraph100/DW-Spectrum/internal/log"
	"github.com/igraph100/DW-Spectrum/internal/metrics"
	"github.com/igraph100/DW-Spectrum/internal/publish"
)

// Variables to hold flag values
var (
	expListen     string
	serviceAction string // "install", "uninstall", "start", "stop"
)

// program implements the kardianos/service interface
type program struct {
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	session   *session
	server    *metrics.Server
	broker    publish.Broker
	publisher *publish.Publisher
}

func (p *program) Start(s service.Service) error {
	logger := log.WithComponent("exporter")

	sess, err := openSession()
	if err != nil {
		return err
	}
	p.session = sess
	p.server = metrics.NewServer(viper.GetString("metrics.listen"), metrics.NewCollector(sess.inst))

	if bcfg, prefix, ok := config.Broker(viper.GetViper()); ok {
		bcfg.ClientID = viper.GetString("client_id")
		broker, err := publish.Connect(bcfg)
		if err != nil {
			// The exporter is still useful without MQTT.
			logger.WithError(err).Error("mqtt disabled")
		} else {
			p.broker = broker
			p.publisher = publish.New(broker, prefix, sess.inst)
			p.publisher.Start()
		}
	}

	// Start should not block. Do the actual work async.
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		sess.inst.Run(ctx)
	}()
	go func() {
		defer p.wg.Done()
		if err := p.server.ListenAndServe(); err != nil {
			logger.WithError(err).Error("metrics server failed")
		}
	}()
	return nil
}

func (p *program) Stop(s service.Service) error {
	logger := log.WithComponent("exporter")
	logger.Info("stopping service")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("server forced to shutdown")
		}
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	if p.publisher != nil {
		p.publisher.Stop()
	}
	if p.broker != nil {
		p.broker.Close()
	}
	if p.session != nil {
		p.session.close(ctx)
	}
	return nil
}

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Start the Prometheus exporter service",
	Long: `Starts a long-running process that polls the server, exposes metrics
over HTTP and, when mqtt.broker is configured, mirrors state to MQTT.
Can be installed as a system service.`,
	Run: func(cmd *cobra.Command, args []string) {
		svcConfig := &service.Config{
			Name:        "spectrum-exporter",
			DisplayName: "DW Spectrum Prometheus Exporter",
			Description: "Exposes DW Spectrum VMS metrics to Prometheus",
			// Arguments passed to the binary when run as a service
			Arguments: []string{"exporter", "--listen", viper.GetString("metrics.listen")},
		}
		if used := viper.ConfigFileUsed(); used != "" {
			if abs, err := filepath.Abs(used); err == nil {
				svcConfig.Arguments = append(svcConfig.Arguments, "--config", abs)
			}
		}

		prg := &program{}
		s, err := service.New(prg, svcConfig)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Handle Service Control Actions (Install, Start, Stop, Uninstall)
		if serviceAction != "" {
			if serviceAction == "install" {
				if err := config.Validate(config.Connection(viper.GetViper())); err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}
			}
			if err := service.Control(s, serviceAction); err != nil {
				fmt.Printf("Failed to %s service: %v\n", serviceAction, err)
				os.Exit(1)
			}
			fmt.Printf("Service action '%s' completed successfully.\n", serviceAction)
			return
		}

		// Runs until the service manager or an interrupt stops it.
		logger, err := s.Logger(nil)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if err = s.Run(); err != nil {
			_ = logger.Error(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(exporterCmd)
	exporterCmd.Flags().StringVar(&expListen, "listen", metrics.DefaultListen, "Address to serve /metrics on")
	exporterCmd.Flags().StringVar(&serviceAction, "service", "", "Service action: install, uninstall, start, stop")
	_ = viper.BindPFlag("metrics.listen", exporterCmd.Flags().Lookup("listen"))
}
