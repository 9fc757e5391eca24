package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/turbokube/fatmacho/pkg/cputype"
	"github.com/turbokube/fatmacho/pkg/fat"
	"github.com/turbokube/fatmacho/pkg/object"
	"github.com/turbokube/fatmacho/pkg/pushed"
)

var infoJSON bool

func newInfoCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "info <binary>",
		Short: "Print the architecture table of a fat binary, or the arch of a thin one",
		Args:  cobra.ExactArgs(1),
		RunE:  withSetup(runInfo),
	}
	c.Flags().BoolVar(&infoJSON, "json", false, "print fat output JSON")
	return c
}

func newVerifyArchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-arch <binary> <arch>...",
		Short: "Fail unless the binary contains every given arch",
		Args:  cobra.MinimumNArgs(2),
		RunE:  withSetup(runVerifyArch),
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]
	b, err := afero.ReadFile(fat.Fs, path)
	if err != nil {
		return err
	}
	r, err := fat.NewReader(b)
	if errors.Is(err, fat.ErrNotFat) {
		obj, perr := object.Parse(b)
		if perr != nil || !obj.IsThin() {
			return fmt.Errorf("%s: neither fat nor a thin Mach-O binary", path)
		}
		if infoJSON {
			return fmt.Errorf("%s: --json requires a fat binary, got %s %s", path, obj.Kind, obj.Arch.NameOrUnknown())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Non-fat file: %s is architecture: %s\n", path, obj.Arch.NameOrUnknown())
		return nil
	}
	if err != nil {
		return err
	}
	o := pushed.NewFatOutputFromReader(path, r, len(b))
	if infoJSON {
		if err := (&pushed.BuildOutput{Fat: o}).WriteJSON(cmd.OutOrStdout()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	}
	printLayout(cmd.OutOrStdout(), o)
	return nil
}

func printLayout(w io.Writer, o *pushed.FatOutput) {
	header := "fat"
	if o.Fat64 {
		header = "fat64"
	}
	fmt.Fprintf(w, "%s %s %d bytes\n", o.Path, header, o.Size)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ARCH\tCPUTYPE\tCPUSUBTYPE\tOFFSET\tSIZE\tALIGN")
	for _, a := range o.Arches {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t2^%d\n", a.Arch, a.CPUType, a.CPUSubtype, a.Offset, a.Size, a.Align)
	}
	tw.Flush()
}

func runVerifyArch(cmd *cobra.Command, args []string) error {
	path := args[0]
	b, err := afero.ReadFile(fat.Fs, path)
	if err != nil {
		return err
	}
	var has func(cputype.Arch) bool
	if r, err := fat.NewReader(b); err == nil {
		has = func(a cputype.Arch) bool {
			_, ok := r.ExtractArch(a)
			return ok
		}
	} else {
		obj, perr := object.Parse(b)
		if perr != nil || !obj.IsThin() {
			return fmt.Errorf("%s: neither fat nor a thin Mach-O binary", path)
		}
		has = obj.Arch.Matches
	}
	var missing []string
	for _, name := range args[1:] {
		a, ok := cputype.Lookup(name)
		if !ok {
			return lookupArch(name)
		}
		if !has(a) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s does not contain: %s", path, strings.Join(missing, " "))
	}
	return nil
}
