package cmd

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ParkGyuhwan/buffercache/blockdev"
	"github.com/ParkGyuhwan/buffercache/cache"
)

var mkimageCmd = &cobra.Command{
	Use:   "mkimage <path>",
	Short: "Create a zero-filled disk image.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		sectors := c.ImageSectors
		if cmd.Flags().Changed("sectors") {
			sectors, _ = cmd.Flags().GetUint64("sectors")
		}

		err = blockdev.CreateImage(args[0], sectors)
		if err != nil {
			return err
		}

		cmd.Printf("Created %s with %d sectors.\n", args[0], sectors)

		return nil
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <image> <sector>",
	Short: "Print one sector of an image as a hex dump.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sector, err := parseSector(args[1])
		if err != nil {
			return err
		}

		buf := make([]byte, blockdev.SectorSize)

		err = withImageCache(cmd, args[0], func(c *cache.Cache) error {
			return c.Read(sector, 0, blockdev.SectorSize, buf, 0)
		})
		if err != nil {
			return err
		}

		cmd.Print(hex.Dump(buf))

		return nil
	},
}

var putCmd = &cobra.Command{
	Use:   "put <image> <sector> <offset> <hex>",
	Short: "Write bytes into a sector of an image.",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		sector, err := parseSector(args[1])
		if err != nil {
			return err
		}

		offset, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid offset %q: %w", args[2], err)
		}

		data, err := hex.DecodeString(args[3])
		if err != nil {
			return fmt.Errorf("invalid data: %w", err)
		}

		err = withImageCache(cmd, args[0], func(c *cache.Cache) error {
			return c.Write(sector, offset, len(data), data, 0)
		})
		if err != nil {
			return err
		}

		cmd.Printf("Wrote %d bytes to sector %d at offset %d.\n",
			len(data), sector, offset)

		return nil
	},
}

func init() {
	mkimageCmd.Flags().Uint64("sectors", 0,
		"Number of sectors (overrides BCACHE_IMAGE_SECTORS)")

	rootCmd.AddCommand(mkimageCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(putCmd)
}

func parseSector(s string) (blockdev.SectorID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid sector %q: %w", s, err)
	}

	return blockdev.SectorID(n), nil
}

// withImageCache opens the image, runs fn against a cache in front of it, and
// then flushes the cache and closes the image.
func withImageCache(
	cmd *cobra.Command,
	path string,
	fn func(c *cache.Cache) error,
) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dev, err := blockdev.OpenFileDevice(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	c := cache.New(dev, conf.NumFrames)

	err = fn(c)
	if err != nil {
		return err
	}

	err = c.Terminate()
	if err != nil {
		return err
	}

	return dev.Sync()
}
