package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-flac/flac"
	"github.com/go-flac/flac/meta"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE...",
		Short: "Print StreamInfo and metadata blocks for one or more FLAC files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := printInfo(path); err != nil {
					logger.Error("info", "file", path, "err", err)
				}
			}
			return nil
		},
	}
}

func printInfo(path string) error {
	s, err := flac.OpenFile(path)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("%s:\n", path)
	fmt.Printf("  sample rate: %d Hz\n", s.Info.SampleRate)
	fmt.Printf("  channels: %d\n", s.Info.NChannels)
	fmt.Printf("  bits per sample: %d\n", s.Info.BitsPerSample)
	fmt.Printf("  samples: %d\n", s.Info.NSamples)
	fmt.Printf("  block size: %d-%d\n", s.Info.BlockSizeMin, s.Info.BlockSizeMax)
	fmt.Printf("  frame size: %d-%d\n", s.Info.FrameSizeMin, s.Info.FrameSizeMax)

	for i, block := range s.Blocks {
		fmt.Printf("METADATA block #%d\n", i+1)
		fmt.Printf("  type: %d (%s)\n", block.Header.Type, blockTypeLabel(block.Header.Type))
		fmt.Printf("  is last: %v\n", block.Header.IsLast)
		fmt.Printf("  length: %d\n", block.Header.Length)
	}
	return nil
}

func blockTypeLabel(t meta.BlockType) string {
	return t.String()
}
