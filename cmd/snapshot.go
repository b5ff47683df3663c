package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/OliveiraNt/infralens/internal/application"
	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/OliveiraNt/infralens/internal/infrastructure/repository"
	"github.com/spf13/cobra"
)

type snapshotOptions struct {
	internal bool
	timeout  time.Duration
}

type snapshotOutput struct {
	Health  domain.Health                    `json:"health"`
	Cluster domain.ClusterSnapshot           `json:"cluster"`
	Topics  []domain.TopicDescriptor         `json:"topics"`
	Groups  []domain.ConsumerGroupDescriptor `json:"consumer_groups"`
}

func newSnapshotCmd(root *rootOptions) *cobra.Command {
	var opts snapshotOptions

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Refresh once and print the cluster snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			out, err := takeSnapshot(ctx, root, opts)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().BoolVar(&opts.internal, "internal", false, "Include internal topics and groups")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Overall timeout")
	return cmd
}

func takeSnapshot(ctx context.Context, root *rootOptions, opts snapshotOptions) (snapshotOutput, error) {
	cfg, err := repository.NewConfigRepository(root.resolveConfigPath()).LoadFromFile()
	if err != nil {
		return snapshotOutput{}, err
	}
	cluster, err := cfg.ActiveCluster()
	if err != nil {
		return snapshotOutput{}, err
	}
	client, err := root.factory.CreateClient(cluster, cfg.Engine.RequestTimeout)
	if err != nil {
		return snapshotOutput{}, fmt.Errorf("create client for %s: %w", cluster.Name, err)
	}

	engine := application.NewEngine(client, cfg.Engine)
	defer engine.Close()

	if err := engine.Connect(ctx); err != nil {
		return snapshotOutput{}, fmt.Errorf("connect to %s: %w", cluster.Name, err)
	}
	if err := engine.Refresh(ctx); err != nil {
		return snapshotOutput{}, err
	}

	view, ok := engine.View()
	if !ok {
		return snapshotOutput{}, domain.ErrNoSnapshot
	}
	out := snapshotOutput{Health: engine.GetHealth(), Cluster: view.Cluster, Topics: view.Topics, Groups: view.Groups}
	if !opts.internal {
		if out.Topics, err = engine.ListTopics(); err != nil {
			return snapshotOutput{}, err
		}
		if out.Groups, err = engine.ListConsumerGroups(); err != nil {
			return snapshotOutput{}, err
		}
	}
	return out, nil
}
