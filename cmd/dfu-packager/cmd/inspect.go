package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/dfu-packager/internal/service/inspector"
)

// inspectCmd verifies an existing DFU archive.
var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "Verify that a DFU archive's init packet matches its binary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		if _, err := loadConfig(); err != nil {
			return err
		}

		report, err := inspector.Inspect(context.Background(), args[0])
		if report != nil {
			app := report.Manifest.Manifest.Application

			_, _ = fmt.Fprintf(cmd.OutOrStdout(),
				"archive: %s\nbin_file: %s (%d bytes)\ndat_file: %s\ninit packet crc32: %08x\nbinary crc32: %08x\n",
				report.Archive, app.BinFile, report.BinSize, app.DatFile, report.InitPacket.CRC, report.ActualCRC)
		}

		return err
	},
}
