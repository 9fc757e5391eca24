package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/turbokube/fatmacho/pkg/build"
	"github.com/turbokube/fatmacho/pkg/fat"
	"github.com/turbokube/fatmacho/pkg/pushed"
	"github.com/turbokube/fatmacho/pkg/schema"
	schemav1 "github.com/turbokube/fatmacho/pkg/schema/v1"
	"go.uber.org/zap"
)

const envPlatforms = "PLATFORMS"

// create command flag variables
var (
	configPath   string
	output       string
	fileOutput   string
	platformsEnv bool
	dryRun       bool
	ociLayout    string
	ociTag       string
	binaryPath   string
)

func newCreateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "create [inputs...]",
		Short: "Combine thin and fat binaries into one fat binary",
		Long: "Combine thin and fat binaries into one fat binary.\n" +
			"Input args may be files or directories. Without args the build is read from a config file.",
		RunE: withSetup(runCreate),
	}
	c.Flags().StringVarP(&configPath, "f", "f", schema.DefaultConfig, "config file path, or - for stdin, ignored if inputs are given as args")
	c.Flags().StringVarP(&output, "o", "o", "", fmt.Sprintf("output path, overrides config, defaults to env %s for args", "FATMACHO_OUTPUT"))
	c.Flags().StringVar(&fileOutput, "file-output", "", "write build output JSON to this path")
	c.Flags().BoolVar(&platformsEnv, "platforms-env-require", false, fmt.Sprintf("requires env %s to be set, unless config specifies platforms", envPlatforms))
	c.Flags().BoolVar(&dryRun, "dry-run", false, "read inputs and print the layout without writing")
	c.Flags().StringVar(&ociLayout, "oci-layout", "", "also export slices to an OCI image layout dir")
	c.Flags().StringVar(&ociTag, "oci-tag", "", "also push slices as a multi-arch image")
	c.Flags().StringVar(&binaryPath, "binary-path", "", fmt.Sprintf("path to the binary in exported images, default %s", schema.DefaultBinaryPath))
	return c
}

func runCreate(cmd *cobra.Command, args []string) error {
	var config schemav1.FatConfig
	if len(args) > 0 {
		config = schema.TemplateCreate(output, args)
		zap.L().Debug("config from args", zap.Strings("inputs", args))
	} else {
		var err error
		config, err = schema.ParseConfig(configPath)
		if err != nil {
			return fmt.Errorf("create requires input args or config: %w", err)
		}
		if output != "" {
			if config.Output != "" {
				zap.L().Debug("config output overridden", zap.String("config", config.Output), zap.String("flag", output))
			}
			config.Output = output
		}
	}

	if err := applyPlatformsEnv(&config); err != nil {
		return err
	}
	if ociLayout != "" {
		config.OCI.Layout = ociLayout
	}
	if ociTag != "" {
		config.OCI.Tag = ociTag
	}
	if binaryPath != "" {
		config.OCI.BinaryPath = binaryPath
	}

	aboutConfig := make([]zap.Field, 0)
	if config.Status.Template {
		aboutConfig = append(aboutConfig, zap.Bool("templated", config.Status.Template))
	} else {
		aboutConfig = append(aboutConfig, zap.String("md5", config.Status.Md5), zap.String("sha256", config.Status.Sha256))
	}
	if wd, err := os.Getwd(); err == nil {
		aboutConfig = append(aboutConfig, zap.String("workdir", wd))
	}
	zap.L().Info("config", aboutConfig...)

	if dryRun {
		buildOutput, err := build.Plan(config)
		if err != nil {
			return err
		}
		printLayout(cmd.OutOrStdout(), buildOutput.Fat)
		return nil
	}

	if err := writeBuildOutput(&pushed.BuildOutput{Trace: &pushed.BuildTrace{Start: &tStart}}); err != nil {
		return err
	}
	buildOutput, err := build.Run(config)
	if err != nil {
		return err
	}
	buildOutput.Trace = pushed.NewBuildTrace(tStart, os.Environ())
	buildOutput.Print(cmd.OutOrStdout())
	return writeBuildOutput(buildOutput)
}

// applyPlatformsEnv lets config platforms win over env
func applyPlatformsEnv(config *schemav1.FatConfig) error {
	_, exists := os.LookupEnv(envPlatforms)
	if !exists {
		if platformsEnv && len(config.Platforms) == 0 {
			return fmt.Errorf("%s env required but not found", envPlatforms)
		}
		return nil
	}
	p := schema.PlatformsFromEnv()
	if len(config.Platforms) == 0 {
		config.Platforms = p
	} else if !slices.Equal(config.Platforms, p) {
		zap.L().Info("platforms not equal, config kept", zap.String("env", strings.Join(p, ",")), zap.Strings("config", config.Platforms))
	}
	return nil
}

func writeBuildOutput(buildOutput *pushed.BuildOutput) error {
	if fileOutput == "" {
		return nil
	}
	f, err := fat.Fs.OpenFile(fileOutput, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		wd, _ := os.Getwd()
		zap.L().Error("file-output open", zap.String("cwd", wd), zap.String("path", fileOutput), zap.Error(err))
		return err
	}
	defer f.Close()
	if err := buildOutput.WriteJSON(f); err != nil {
		zap.L().Error("file-output write", zap.String("path", fileOutput), zap.Error(err))
		return err
	}
	return f.Close()
}

// writeThin writes a single slice with the same mode as fat output
func writeThin(path string, b []byte) error {
	if err := afero.WriteFile(fat.Fs, path, b, fat.FileMode); err != nil {
		return err
	}
	return fat.Fs.Chmod(path, fat.FileMode)
}
