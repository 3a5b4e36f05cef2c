package command

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"friendspark/geohash"
	"friendspark/proximity"
)

func newGeohashCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geohash",
		Short: "Encode, decode and expand geohashes",
	}

	var precision int
	encode := &cobra.Command{
		Use:   "encode LAT LON",
		Short: "Print the geohash of a point (use -- before negative coordinates)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("latitude %q: %w", args[0], err)
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("longitude %q: %w", args[1], err)
			}
			hash, err := geohash.Encode(lat, lon, precision)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	encode.Flags().IntVarP(&precision, "precision", "p", proximity.StoragePrecision,
		"number of geohash characters (1-12)")

	decode := &cobra.Command{
		Use:   "decode HASH",
		Short: "Print the center and bounds of a geohash cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cell, err := geohash.DecodeCell(args[0])
			if err != nil {
				return err
			}
			c := cell.Center()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%.6f %.6f\n", c.Latitude, c.Longitude)
			fmt.Fprintf(out, "lat [%g, %g] lon [%g, %g]\n", cell.MinLat, cell.MaxLat, cell.MinLon, cell.MaxLon)
			return nil
		},
	}

	neighbors := &cobra.Command{
		Use:   "neighbors HASH",
		Short: "Print the cells around a geohash, clockwise from north",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashes, err := proximity.Neighbors(args[0])
			if err != nil {
				return err
			}
			for _, h := range hashes {
				fmt.Fprintln(cmd.OutOrStdout(), h)
			}
			return nil
		},
	}

	cmd.AddCommand(encode, decode, neighbors)
	return cmd
}
