package main

import (
	"github.com/mewkiz/pkg/errutil"
	"github.com/spf13/cobra"

	"github.com/go-flac/flac"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify FILE...",
		Short: "Decode every frame and check the stream's MD5 and CRC integrity",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := false
			for _, path := range args {
				s, err := flac.ParseFile(path)
				if err != nil {
					logger.Error("verify failed", "file", path, "err", err)
					failed = true
					continue
				}
				s.Close()
				logger.Info("verify ok", "file", path, "md5", s.MD5Status)
			}
			if failed {
				return errutil.Newf("one or more files failed verification")
			}
			return nil
		},
	}
}
