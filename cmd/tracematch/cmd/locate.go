package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/tracematch/internal/location"
)

var watch bool

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Scan WiFi access points and print the best matching location",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeStore, err := openApp()
		if err != nil {
			return err
		}
		defer closeStore()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := a.LoadFingerprints(ctx); err != nil {
			return err
		}

		if !watch {
			result, err := a.Locator().LocateOnce(ctx)
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		}

		results, unsubscribe := a.Locator().Subscribe()
		defer unsubscribe()
		go a.Locator().Run(ctx)

		for {
			select {
			case <-ctx.Done():
				return nil
			case result := <-results:
				printResult(result)
			}
		}
	},
}

var recordCmd = &cobra.Command{
	Use:   "record <location>",
	Short: "Scan WiFi access points and store them as a fingerprint of a location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeStore, err := openApp()
		if err != nil {
			return err
		}
		defer closeStore()

		ctx := cmd.Context()
		readings, err := a.Scan(ctx)
		if err != nil {
			return err
		}
		if len(readings) == 0 {
			return fmt.Errorf("no access points in range")
		}

		if _, err := a.RecordFingerprint(ctx, args[0], readings); err != nil {
			return err
		}
		fmt.Println(location.NewFingerprint(args[0], readings).String())
		return nil
	},
}

func init() {
	locateCmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep scanning every TRACEMATCH_SCAN_PERIOD")
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(recordCmd)
}

func printResult(r location.Result) {
	for _, d := range r.Distances {
		fmt.Printf("%s\t%.0f\n", d.Location, d.Distance)
	}
	if r.OK {
		fmt.Printf("Location: %s (%d access points)\n", r.Location, r.Readings)
	} else {
		fmt.Printf("Location: %s (%d access points)\n", location.UnknownLocation, r.Readings)
	}
}
