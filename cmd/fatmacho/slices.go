package main

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/turbokube/fatmacho/pkg/build"
	"github.com/turbokube/fatmacho/pkg/cputype"
	"github.com/turbokube/fatmacho/pkg/fat"
	"github.com/turbokube/fatmacho/pkg/inputs"
	"go.uber.org/zap"
)

var (
	arch    string
	arches  []string
	outPath string
)

func newThinCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "thin <fat binary>",
		Short: "Write the slice for one arch as a thin binary",
		Args:  cobra.ExactArgs(1),
		RunE:  withSetup(runThin),
	}
	c.Flags().StringVar(&arch, "arch", "", "arch name, for example arm64")
	c.Flags().StringVarP(&outPath, "o", "o", "", "output path")
	c.MarkFlagRequired("arch") //nolint:errcheck
	c.MarkFlagRequired("o")    //nolint:errcheck
	return c
}

func newExtractCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "extract <fat binary>",
		Short: "Write a fat binary with only the given arches",
		Args:  cobra.ExactArgs(1),
		RunE:  withSetup(runExtract),
	}
	c.Flags().StringSliceVar(&arches, "arch", nil, "arch names to keep, repeated or comma separated")
	c.Flags().StringVarP(&outPath, "o", "o", "", "output path")
	c.MarkFlagRequired("arch") //nolint:errcheck
	c.MarkFlagRequired("o")    //nolint:errcheck
	return c
}

func newRemoveCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "remove <fat binary>",
		Short: "Write a fat binary without the given arches",
		Args:  cobra.ExactArgs(1),
		RunE:  withSetup(runRemove),
	}
	c.Flags().StringSliceVar(&arches, "arch", nil, "arch names to remove, repeated or comma separated")
	c.Flags().StringVarP(&outPath, "o", "o", "", "output path")
	c.MarkFlagRequired("arch") //nolint:errcheck
	c.MarkFlagRequired("o")    //nolint:errcheck
	return c
}

func lookupArch(name string) error {
	if _, ok := cputype.Lookup(name); !ok {
		return fmt.Errorf("unknown arch %s, known: %s", name, strings.Join(cputype.Names(), " "))
	}
	return nil
}

func sliceNames(r *fat.Reader) string {
	names := make([]string, 0)
	for _, s := range r.Slices() {
		names = append(names, s.Arch.NameOrUnknown())
	}
	return strings.Join(names, " ")
}

func readFat(path string) (*fat.Reader, error) {
	r, err := fat.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func runThin(cmd *cobra.Command, args []string) error {
	if err := lookupArch(arch); err != nil {
		return err
	}
	r, err := readFat(args[0])
	if err != nil {
		return err
	}
	b, ok := r.Extract(arch)
	if !ok {
		return fmt.Errorf("%s does not contain %s, got: %s", args[0], arch, sliceNames(r))
	}
	if err := writeThin(outPath, b); err != nil {
		return err
	}
	zap.L().Info("wrote thin binary", zap.String("path", outPath), zap.String("arch", arch), zap.Int("bytes", len(b)))
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	r, err := readFat(args[0])
	if err != nil {
		return err
	}
	w := fat.NewWriter()
	for _, a := range arches {
		if err := lookupArch(a); err != nil {
			return err
		}
		b, ok := r.Extract(a)
		if !ok {
			return fmt.Errorf("%s does not contain %s, got: %s", args[0], a, sliceNames(r))
		}
		if err := w.Add(b); err != nil {
			return fmt.Errorf("%s: %w", a, err)
		}
	}
	return w.WriteToFile(outPath)
}

func runRemove(cmd *cobra.Command, args []string) error {
	b, err := afero.ReadFile(fat.Fs, args[0])
	if err != nil {
		return err
	}
	if _, err := fat.NewReader(b); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	w, err := build.RunWriter([]inputs.Source{{Name: args[0], Data: b}}, arches)
	if err != nil {
		return err
	}
	return w.WriteToFile(outPath)
}
