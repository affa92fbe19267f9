package diff

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/schemadiff/schemadiff/cmd/util"
	"github.com/schemadiff/schemadiff/internal/config"
	"github.com/schemadiff/schemadiff/internal/diff"
	"github.com/schemadiff/schemadiff/internal/fingerprint"
	"github.com/schemadiff/schemadiff/internal/ignore"
	"github.com/schemadiff/schemadiff/internal/logger"
	"github.com/schemadiff/schemadiff/internal/model"
	"github.com/schemadiff/schemadiff/internal/plan"
	"github.com/schemadiff/schemadiff/internal/source"
	"github.com/spf13/cobra"
)

// ErrChangesDetected is returned with --exit-code when the schemas differ
var ErrChangesDetected = errors.New("schema differences detected")

var (
	diffFrom          string
	diffTo            string
	withRenaming      bool
	keepRemoved       bool
	exclude           []string
	ignoreFile        string
	platformName      string
	schema            string
	format            string
	outputHuman       string
	outputJSON        string
	noColor           bool
	exitCode          bool
	expectFingerprint string
)

var DiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare two schemas",
	Long: `Compare the entities of two schemas and report what was added, removed, modified or renamed.

A source is a schema file (.sql, .yaml, .yml) or a live database:
  postgres://user@host/db   PostgreSQL (a bare postgres:// is built from PG* variables)
  mysql://user@host/db      MySQL
  sqlite:path/to/file.db    SQLite`,
	RunE:         runDiff,
	SilenceUsage: true,
}

func init() {
	DiffCmd.Flags().StringVar(&diffFrom, "from", "", "Source schema, the current state (required)")
	DiffCmd.Flags().StringVar(&diffTo, "to", "", "Target schema, the desired state (required)")

	DiffCmd.Flags().BoolVar(&withRenaming, "with-renaming", false, "Detect renamed entities (env: SCHEMADIFF_WITH_RENAMING)")
	DiffCmd.Flags().BoolVar(&keepRemoved, "keep-removed", false, "Do not report entities missing from the target as removed")
	DiffCmd.Flags().StringArrayVar(&exclude, "exclude", nil, "Entity name to leave out of the comparison (repeatable)")
	DiffCmd.Flags().StringVar(&ignoreFile, "ignore-file", "", "Ignore file path (default: ./"+ignore.IgnoreFileName+")")
	DiffCmd.Flags().StringVar(&platformName, "platform", "", "Platform for schema files: generic, pgsql, mysql, sqlite (env: SCHEMADIFF_PLATFORM)")
	DiffCmd.Flags().StringVar(&schema, "schema", "", "PostgreSQL schema to inspect (env: SCHEMADIFF_SCHEMA)")

	DiffCmd.Flags().StringVar(&format, "format", "", "Format written to stdout when no --output-* flag is given: text or json (env: SCHEMADIFF_FORMAT)")
	DiffCmd.Flags().StringVar(&outputHuman, "output-human", "", "Output human-readable format to stdout or file path")
	DiffCmd.Flags().StringVar(&outputJSON, "output-json", "", "Output JSON format to stdout or file path")
	DiffCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	DiffCmd.Flags().BoolVar(&exitCode, "exit-code", false, "Exit with status 2 when differences are found")
	DiffCmd.Flags().StringVar(&expectFingerprint, "expect-fingerprint", "", "Fail unless the source schema has this fingerprint (8+ character prefix allowed)")

	DiffCmd.MarkFlagRequired("from")
	DiffCmd.MarkFlagRequired("to")
}

// DiffConfig holds everything needed to compare two sources
type DiffConfig struct {
	From         string
	To           string
	WithRenaming bool
	RemoveEntity bool
	Exclude      []string
	IgnoreFile   string
	Platform     string
	Schema       string
}

func runDiff(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(util.ConfigFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	diffConfig := &DiffConfig{
		From:         diffFrom,
		To:           diffTo,
		WithRenaming: cfg.WithRenaming,
		RemoveEntity: cfg.RemoveEntity,
		Exclude:      cfg.Exclude,
		IgnoreFile:   cfg.IgnoreFile,
		Platform:     cfg.Platform,
		Schema:       cfg.Schema,
	}

	schemaPlan, err := GenerateDiff(cmd.Context(), diffConfig)
	if err != nil {
		return err
	}

	if expectFingerprint != "" {
		expected := &fingerprint.SchemaFingerprint{Hash: expectFingerprint}
		if err := fingerprint.Compare(expected, schemaPlan.SourceFingerprint); err != nil {
			return fmt.Errorf("source schema changed: %w", err)
		}
	}

	outputs, err := determineOutputs(cfg.Format)
	if err != nil {
		return err
	}
	for _, output := range outputs {
		if err := processOutput(schemaPlan, output, cmd); err != nil {
			return err
		}
	}

	if exitCode && schemaPlan.HasChanges() {
		cmd.SilenceErrors = true
		return ErrChangesDetected
	}
	return nil
}

// applyFlags lets explicitly set flags override the config file and environment
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("with-renaming") {
		cfg.WithRenaming = withRenaming
	}
	if flags.Changed("keep-removed") {
		cfg.RemoveEntity = !keepRemoved
	}
	if flags.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, exclude...)
	}
	if flags.Changed("ignore-file") {
		cfg.IgnoreFile = ignoreFile
	}
	if flags.Changed("platform") {
		cfg.Platform = platformName
	}
	if flags.Changed("schema") {
		cfg.Schema = schema
	}
	if flags.Changed("format") {
		cfg.Format = format
	}
}

// GenerateDiff loads both sources and compares them
func GenerateDiff(ctx context.Context, cfg *DiffConfig) (*plan.Plan, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.Get()

	ignoreConfig, err := loadIgnoreConfig(cfg.IgnoreFile)
	if err != nil {
		return nil, err
	}

	platform, err := model.PlatformByName(cfg.Platform)
	if err != nil {
		return nil, err
	}
	opts := source.Options{Platform: platform, Schema: cfg.Schema, Ignore: ignoreConfig}

	from, err := loadSource(ctx, cfg.From, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load source schema: %w", err)
	}
	to, err := loadSource(ctx, cfg.To, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load target schema: %w", err)
	}

	excluded := append(append([]string{}, cfg.Exclude...), ignoreConfig.ExcludedNames(from, to)...)
	log.Debug("Comparing schemas",
		"from_entities", len(from.Entities),
		"to_entities", len(to.Entities),
		"with_renaming", cfg.WithRenaming,
		"remove_entity", cfg.RemoveEntity,
		"excluded", excluded,
	)

	d, err := diff.ComputeDiff(from, to,
		diff.WithRenaming(cfg.WithRenaming),
		diff.WithRemoveEntity(cfg.RemoveEntity),
		diff.WithExcludedEntities(excluded...),
	)
	if err != nil {
		return nil, err
	}

	return plan.NewPlan(from, to, d)
}

func loadSource(ctx context.Context, spec string, opts source.Options) (*model.Database, error) {
	expanded, err := util.ExpandSource(spec)
	if err != nil {
		return nil, err
	}
	return source.Load(ctx, expanded, opts)
}

func loadIgnoreConfig(path string) (*model.IgnoreConfig, error) {
	if path == "" {
		cfg, err := ignore.LoadIgnoreFile()
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", ignore.IgnoreFileName, err)
		}
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to load ignore file: %w", err)
	}
	cfg, err := ignore.LoadIgnoreFileFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore file %s: %w", path, err)
	}
	return cfg, nil
}

// outputSpec is one requested output: a format and where to write it
type outputSpec struct {
	format string // "human" or "json"
	target string // "stdout" or file path
}

// determineOutputs parses the output flags and returns the list of outputs to generate
func determineOutputs(defaultFormat string) ([]outputSpec, error) {
	var outputs []outputSpec
	stdoutCount := 0

	if outputHuman != "" {
		if outputHuman == "stdout" {
			stdoutCount++
		}
		outputs = append(outputs, outputSpec{format: "human", target: outputHuman})
	}

	if outputJSON != "" {
		if outputJSON == "stdout" {
			stdoutCount++
		}
		outputs = append(outputs, outputSpec{format: "json", target: outputJSON})
	}

	if stdoutCount > 1 {
		return nil, fmt.Errorf("only one output format can use stdout")
	}

	// Default behavior: the configured format to stdout
	if len(outputs) == 0 {
		switch defaultFormat {
		case config.FormatJSON:
			outputs = append(outputs, outputSpec{format: "json", target: "stdout"})
		default:
			outputs = append(outputs, outputSpec{format: "human", target: "stdout"})
		}
	}

	return outputs, nil
}

// processOutput writes the plan in the specified format to the target destination
func processOutput(schemaPlan *plan.Plan, output outputSpec, cmd *cobra.Command) error {
	var content string
	var err error

	switch output.format {
	case "human":
		useColor := output.target == "stdout" && !noColor
		content = schemaPlan.HumanColored(useColor)
	case "json":
		content, err = schemaPlan.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to generate JSON output: %w", err)
		}
		content += "\n"
	default:
		return fmt.Errorf("unknown output format: %s", output.format)
	}

	if output.target == "stdout" {
		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	}
	if err := os.WriteFile(output.target, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s output to %s: %w", output.format, output.target, err)
	}
	return nil
}
