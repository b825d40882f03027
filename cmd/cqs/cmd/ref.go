package cmd

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/cqs-dev/cqs/internal/config"
	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/output"
)

func newRefCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "ref",
		Short: "Manage named [[reference]] entries in the project config",
	}
	c.AddCommand(newRefAddCmd(), newRefListCmd(), newRefRemoveCmd(), newRefUpdateCmd())
	return c
}

// projectConfigPath is the raw project-only config file ref mutates
// directly, distinct from config.Load's merged view (user config +
// project config + env) which must never be written back wholesale.
func projectConfigPath(root string) string {
	return filepath.Join(root, ".cqs.toml")
}

func loadRawProjectConfig(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config.NewConfig(), nil
		}
		return nil, cqserrors.Wrap(cqserrors.KindIO, "read project config", err)
	}
	cfg := config.NewConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindParse, "parse project config", err)
	}
	return cfg, nil
}

func newRefAddCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "add <name> <path>",
		Short: "Add a named reference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			if err := config.ValidateReferenceName(name); err != nil {
				return newUsageError(err.Error())
			}
			root, err := resolveProjectRoot(flagProjectDir)
			if err != nil {
				return err
			}
			cfgPath := projectConfigPath(root)
			cfg, err := loadRawProjectConfig(cfgPath)
			if err != nil {
				return err
			}
			for _, r := range cfg.References {
				if r.Name == name {
					return cqserrors.New(cqserrors.KindValidation, "reference already exists: "+name)
				}
			}
			cfg.References = append(cfg.References, config.Reference{Name: name, Path: path})
			if err := config.Write(cfgPath, cfg); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("added reference %s -> %s", name, path)
			return nil
		},
	}
	return c
}

func newRefListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "List references",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveProjectRoot(flagProjectDir)
			if err != nil {
				return err
			}
			cfg, err := loadRawProjectConfig(projectConfigPath(root))
			if err != nil {
				return err
			}
			out := output.New(cmd.OutOrStdout())
			if flagJSON {
				return out.JSON(cfg.References)
			}
			if len(cfg.References) == 0 {
				out.Status("", "no references")
				return nil
			}
			for _, r := range cfg.References {
				out.Statusf("", "%s -> %s", r.Name, r.Path)
			}
			return nil
		},
	}
	return c
}

func newRefRemoveCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveProjectRoot(flagProjectDir)
			if err != nil {
				return err
			}
			cfgPath := projectConfigPath(root)
			cfg, err := loadRawProjectConfig(cfgPath)
			if err != nil {
				return err
			}
			kept := cfg.References[:0]
			for _, r := range cfg.References {
				if r.Name != args[0] {
					kept = append(kept, r)
				}
			}
			cfg.References = kept
			if err := config.Write(cfgPath, cfg); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Success("reference removed")
			return nil
		},
	}
	return c
}

func newRefUpdateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "update <name> <path>",
		Short: "Change a reference's path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			root, err := resolveProjectRoot(flagProjectDir)
			if err != nil {
				return err
			}
			cfgPath := projectConfigPath(root)
			cfg, err := loadRawProjectConfig(cfgPath)
			if err != nil {
				return err
			}
			found := false
			for i := range cfg.References {
				if cfg.References[i].Name == name {
					cfg.References[i].Path = path
					found = true
					break
				}
			}
			if !found {
				return cqserrors.New(cqserrors.KindValidation, "no reference named "+name)
			}
			if err := config.Write(cfgPath, cfg); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("updated reference %s -> %s", name, path)
			return nil
		},
	}
	return c
}
