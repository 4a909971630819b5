// inkctl is a command line client for an InkGen server: generate designs,
// list styles, and check remaining credits from a terminal.
package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkgen/server/pkg/client"
)

var (
	serverURL string
	token     string
)

var rootCmd = &cobra.Command{
	Use:   "inkctl",
	Short: "Command line client for InkGen",
	Long: `inkctl talks to an InkGen server. Authenticate via the web flow first,
then pass your session token with --token or the INKGEN_TOKEN environment
variable.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "InkGen server base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "session token (defaults to INKGEN_TOKEN)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(stylesCmd)
	rootCmd.AddCommand(remainingCmd)

	generateCmd.Flags().StringP("style", "s", "", "tattoo style (see 'inkctl styles')")
	generateCmd.Flags().StringP("output", "o", "design.png", "output file path")
}

func newClient() *client.Client {
	c := client.New(serverURL)
	t := token
	if t == "" {
		t = os.Getenv("INKGEN_TOKEN")
	}
	c.SetToken(t, 0, 0)
	return c
}

var generateCmd = &cobra.Command{
	Use:   "generate DESCRIPTION",
	Short: "Generate a tattoo design",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	style, _ := cmd.Flags().GetString("style")
	output, _ := cmd.Flags().GetString("output")

	c := newClient()
	fmt.Fprintln(os.Stderr, "Generating... this can take a minute.")

	start := time.Now()
	image, err := c.Generate(cmd.Context(), args[0], style)
	if err != nil {
		return err
	}

	data, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	fmt.Printf("Wrote %s (%d bytes, took %s)\n", output, len(data), time.Since(start).Round(time.Second))
	return nil
}

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List supported tattoo styles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		styles, err := client.New(serverURL).Styles(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range styles {
			fmt.Println(s)
		}
		return nil
	},
}

var remainingCmd = &cobra.Command{
	Use:   "remaining",
	Short: "Show remaining generation credits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		est, err := newClient().Resync(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Daily: %d\nBoost pack: %d\n", est.Daily, est.Boost)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
