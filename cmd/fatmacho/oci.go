package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/turbokube/fatmacho/pkg/build"
	schemav1 "github.com/turbokube/fatmacho/pkg/schema/v1"
)

var (
	platformFlags []string
	imageRef      string
	envFlags      []string
)

func newExportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "export <binary>",
		Short: "Export slices as a multi-platform OCI image",
		Long: "Export slices as a multi-platform OCI image, one darwin image per slice.\n" +
			"The image index is written to a layout dir, pushed to a registry, or both.",
		Args: cobra.ExactArgs(1),
		RunE: withSetup(runExport),
	}
	c.Flags().StringVar(&ociLayout, "layout", "", "OCI image layout dir to write")
	c.Flags().StringVar(&ociTag, "tag", "", "image ref to push")
	c.Flags().StringVar(&binaryPath, "binary-path", "", "path to the binary in each image")
	c.Flags().StringSliceVar(&platformFlags, "platform", nil, "export only these platforms, for example darwin/arm64")
	c.Flags().StringArrayVar(&envFlags, "env", nil, "KEY=VALUE for the image config, repeatable")
	c.Flags().StringVar(&fileOutput, "file-output", "", "write build output JSON to this path")
	return c
}

func newImportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "import",
		Short: "Combine the binaries of a multi-platform OCI image into a fat binary",
		Args:  cobra.NoArgs,
		RunE:  withSetup(runImport),
	}
	c.Flags().StringVar(&ociLayout, "layout", "", "OCI image layout dir to read")
	c.Flags().StringVar(&imageRef, "image", "", "image ref to pull")
	c.Flags().StringVar(&binaryPath, "binary-path", "", "path to the binary in each image")
	c.Flags().StringSliceVar(&platformFlags, "platform", nil, "import only these platforms, for example darwin/arm64")
	c.Flags().StringVarP(&outPath, "o", "o", "", "output path")
	c.Flags().StringVar(&fileOutput, "file-output", "", "write build output JSON to this path")
	c.MarkFlagRequired("o") //nolint:errcheck
	return c
}

func runExport(cmd *cobra.Command, args []string) error {
	if ociLayout == "" && ociTag == "" {
		return errors.New("export requires --layout or --tag")
	}
	config := schemav1.FatConfig{
		Inputs:    []schemav1.Input{{Path: args[0]}},
		Platforms: platformFlags,
		OCI: schemav1.OCI{
			Layout:     ociLayout,
			Tag:        ociTag,
			BinaryPath: binaryPath,
			Env:        envFlags,
		},
	}
	return runConfig(cmd, config)
}

func runImport(cmd *cobra.Command, args []string) error {
	var input schemav1.Input
	switch {
	case ociLayout != "" && imageRef != "":
		return errors.New("import takes one of --layout and --image")
	case ociLayout != "":
		input.OCILayout = schemav1.OCILayout{Path: ociLayout, BinaryPath: binaryPath}
	case imageRef != "":
		input.OCIImage = schemav1.OCIImage{Ref: imageRef, BinaryPath: binaryPath}
	default:
		return errors.New("import requires --layout or --image")
	}
	config := schemav1.FatConfig{
		Output:    outPath,
		Inputs:    []schemav1.Input{input},
		Platforms: platformFlags,
	}
	return runConfig(cmd, config)
}

// runConfig is the create flow for configs that flags produced
func runConfig(cmd *cobra.Command, config schemav1.FatConfig) error {
	buildOutput, err := build.Run(config)
	if err != nil {
		return err
	}
	buildOutput.Print(cmd.OutOrStdout())
	return writeBuildOutput(buildOutput)
}
