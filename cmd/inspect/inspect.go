package inspect

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schemadiff/schemadiff/cmd/util"
	"github.com/schemadiff/schemadiff/internal/config"
	"github.com/schemadiff/schemadiff/internal/fingerprint"
	"github.com/schemadiff/schemadiff/internal/ignore"
	"github.com/schemadiff/schemadiff/internal/model"
	"github.com/schemadiff/schemadiff/internal/source"
	"github.com/spf13/cobra"
)

var (
	from            string
	platformName    string
	schema          string
	format          string
	ignoreFile      string
	output          string
	showFingerprint bool
)

var InspectCmd = &cobra.Command{
	Use:          "inspect",
	Short:        "Print the schema model of one source",
	Long:         "Load a schema file or live database and print the entities it contains as YAML or JSON. The YAML output can be used as a schema file.",
	RunE:         runInspect,
	SilenceUsage: true,
}

func init() {
	InspectCmd.Flags().StringVar(&from, "from", "", "Schema file or database URL (required)")
	InspectCmd.Flags().StringVar(&platformName, "platform", "", "Platform for schema files: generic, pgsql, mysql, sqlite")
	InspectCmd.Flags().StringVar(&schema, "schema", "", "PostgreSQL schema to inspect")
	InspectCmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")
	InspectCmd.Flags().StringVar(&ignoreFile, "ignore-file", ignore.IgnoreFileName, "Ignore file path")
	InspectCmd.Flags().StringVar(&output, "output", "", "Output file path (default: stdout)")
	InspectCmd.Flags().BoolVar(&showFingerprint, "fingerprint", false, "Print only the schema fingerprint")
	InspectCmd.MarkFlagRequired("from")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(util.ConfigFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("platform") {
		cfg.Platform = platformName
	}
	if cmd.Flags().Changed("schema") {
		cfg.Schema = schema
	}

	platform, err := model.PlatformByName(cfg.Platform)
	if err != nil {
		return err
	}
	ignoreConfig, err := ignore.LoadIgnoreFileFromPath(ignoreFile)
	if err != nil {
		return fmt.Errorf("failed to load ignore file %s: %w", ignoreFile, err)
	}

	spec, err := util.ExpandSource(from)
	if err != nil {
		return err
	}
	db, err := source.Load(cmd.Context(), spec, source.Options{Platform: platform, Schema: cfg.Schema, Ignore: ignoreConfig})
	if err != nil {
		return err
	}
	content, err := render(db, ignoreConfig)
	if err != nil {
		return err
	}

	if output == "" {
		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	}
	if err := os.WriteFile(output, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// render prints the model, or its fingerprint. The fingerprint covers ignored entities
// the same way the diff command's source fingerprint does.
func render(db *model.Database, ignoreConfig *model.IgnoreConfig) (string, error) {
	if showFingerprint {
		fp, err := fingerprint.ComputeFingerprint(db)
		if err != nil {
			return "", err
		}
		return fp.Hash + "\n", nil
	}

	db, err := withoutIgnored(db, ignoreConfig)
	if err != nil {
		return "", err
	}

	switch format {
	case "yaml", "yml":
		data, err := model.ToYAML(db)
		if err != nil {
			return "", fmt.Errorf("failed to render YAML: %w", err)
		}
		return string(data), nil
	case "json":
		data, err := json.MarshalIndent(db, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to render JSON: %w", err)
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: yaml, json)", format)
	}
}

// withoutIgnored drops entities matched by the ignore file's entity patterns
func withoutIgnored(db *model.Database, cfg *model.IgnoreConfig) (*model.Database, error) {
	if len(cfg.ExcludedNames(db)) == 0 {
		return db, nil
	}
	filtered := model.NewDatabase(db.Name, db.Platform)
	for _, e := range db.Entities {
		if cfg.ShouldIgnoreEntity(e.Name) {
			continue
		}
		if err := filtered.AddEntity(e); err != nil {
			return nil, err
		}
	}
	return filtered, nil
}
