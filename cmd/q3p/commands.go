package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/qdev-ingest/q3p/internal/awsclient"
	"github.com/qdev-ingest/q3p/internal/cleanup"
	"github.com/qdev-ingest/q3p/internal/export"
	"github.com/qdev-ingest/q3p/internal/models"
	"github.com/qdev-ingest/q3p/internal/naming"
	"github.com/qdev-ingest/q3p/internal/output"
	"github.com/qdev-ingest/q3p/internal/provision"
	"github.com/qdev-ingest/q3p/internal/version"
)

const defaultOutputFile = "identity-center-users.csv"

// errStepsFailed signals a completed run whose report carries failed steps.
// The report itself has already been rendered by the time it is returned.
var errStepsFailed = errors.New("one or more steps failed")

func newRootCmd(factory awsclient.ClientFactory) *cobra.Command {
	root := &cobra.Command{
		Use:   "q3p",
		Short: "Provision and manage the AWS side of Q Developer 3P log ingestion",
	}
	root.AddCommand(newSetupCmd(factory))
	root.AddCommand(newCleanupCmd(factory))
	root.AddCommand(newExportUsersCmd(factory))
	root.AddCommand(newVersionCmd())
	return root
}

func newSetupCmd(factory awsclient.ClientFactory) *cobra.Command {
	var (
		bucketName      string
		profile         string
		region          string
		exportUsers     bool
		outputFile      string
		reportFmt       string
		showManualSteps bool
	)

	cmd := &cobra.Command{
		Use:          "setup",
		Short:        "Provision the ingestion bucket and Q Developer audit trail",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateReportFormat(reportFmt); err != nil {
				return err
			}

			sess, err := awsclient.Load(cmd.Context(), profile, region, factory)
			if err != nil {
				return err
			}

			report := provision.RunSetup(cmd.Context(), provision.NewBackend(sess.Clients), provision.Options{
				BucketName:  bucketName,
				Region:      sess.Region,
				AccountID:   sess.AccountID,
				ExportUsers: exportUsers,
				OutputFile:  outputFile,
			})

			w := cmd.OutOrStdout()
			if reportFmt == "json" {
				if err := output.RenderJSON(w, report); err != nil {
					return err
				}
			} else {
				output.RenderSetupReport(w, report, output.TableOptions{})
			}
			if showManualSteps {
				printManualSteps(w, bucketName)
			}

			if !models.Succeeded(report.Steps) {
				return errStepsFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bucketName, "bucket-name", "", "Name of the S3 bucket that receives Q Developer logs (required)")
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default: environment / shared config, falling back to us-east-1)")
	cmd.Flags().BoolVar(&exportUsers, "export-users", false, "Also export the IAM Identity Center user directory to the bucket")
	cmd.Flags().StringVar(&outputFile, "output-file", defaultOutputFile, "Local path for the user export CSV")
	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json or table")
	cmd.Flags().BoolVar(&showManualSteps, "show-manual-steps", false, "Print the Q Developer console steps that cannot be automated")
	cmd.MarkFlagRequired("bucket-name")

	return cmd
}

func newCleanupCmd(factory awsclient.ClientFactory) *cobra.Command {
	var (
		bucketName string
		profile    string
		region     string
		confirm    bool
		reportFmt  string
	)

	cmd := &cobra.Command{
		Use:          "cleanup",
		Short:        "Delete every resource a setup run created",
		Long:         "Delete the schedule rules, Lambda functions, IAM roles, trail and bucket of one installation.\nWithout --confirm the command only reports what it would delete.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateReportFormat(reportFmt); err != nil {
				return err
			}

			sess, err := awsclient.Load(cmd.Context(), profile, region, factory)
			if err != nil {
				return err
			}

			report := cleanup.RunCleanup(cmd.Context(), cleanup.NewBackend(sess.Clients), cleanup.Options{
				BucketName: bucketName,
				Region:     sess.Region,
				Confirm:    confirm,
			})

			w := cmd.OutOrStdout()
			if reportFmt == "json" {
				if err := output.RenderJSON(w, report); err != nil {
					return err
				}
			} else {
				output.RenderCleanupReport(w, report, output.TableOptions{})
			}
			if confirm {
				fmt.Fprintln(w, "\nPrompt logging stays enabled in the Q Developer console; disable it there to stop new deliveries.")
			}

			if !models.Succeeded(report.Steps) {
				return errStepsFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bucketName, "bucket-name", "", "Name of the installation's S3 bucket (required)")
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default: environment / shared config, falling back to us-east-1)")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Actually delete; without this flag nothing is touched")
	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json or table")
	cmd.MarkFlagRequired("bucket-name")

	return cmd
}

func newExportUsersCmd(factory awsclient.ClientFactory) *cobra.Command {
	var (
		bucketName string
		profile    string
		region     string
		outputFile string
		upload     bool
	)

	cmd := &cobra.Command{
		Use:          "export-users",
		Short:        "Export the IAM Identity Center user directory to CSV",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if upload && bucketName == "" {
				return errors.New("--upload requires --bucket-name")
			}

			sess, err := awsclient.Load(cmd.Context(), profile, region, factory)
			if err != nil {
				return err
			}

			bucket := ""
			if upload {
				bucket = bucketName
			}
			result, err := export.Run(cmd.Context(), export.Clients{
				SSOAdmin:      sess.Clients.SSOAdmin,
				IdentityStore: sess.Clients.IdentityStore,
				S3:            sess.Clients.S3,
			}, export.Options{
				OutputPath: outputFile,
				Bucket:     bucket,
			})

			w := cmd.OutOrStdout()
			if result != nil && result.LocalPath != "" {
				fmt.Fprintf(w, "Wrote %d users to %s\n", result.UserCount, result.LocalPath)
			}
			if err != nil {
				return err
			}
			if result.Location != "" {
				fmt.Fprintf(w, "Uploaded to %s\n", result.Location)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bucketName, "bucket-name", "", "Upload target bucket (required with --upload)")
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default: environment / shared config, falling back to us-east-1)")
	cmd.Flags().StringVar(&outputFile, "output-file", defaultOutputFile, "Local path for the CSV")
	cmd.Flags().BoolVar(&upload, "upload", false, "Mirror the CSV to the bucket under "+naming.UserExportPrefix)

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

func validateReportFormat(format string) error {
	switch format {
	case "json", "table":
		return nil
	default:
		return fmt.Errorf("invalid --report format %q: use json or table", format)
	}
}

// printManualSteps lists the Q Developer console configuration that has no
// API and therefore stays an operator task.
func printManualSteps(w io.Writer, bucketName string) {
	fmt.Fprintln(w, "\nManual console steps (no API, administrator required):")
	fmt.Fprintf(w, "  1. Open the Amazon Q Developer console settings.\n")
	fmt.Fprintf(w, "  2. Enable prompt logging, target %s\n", naming.S3URI(bucketName, naming.PromptLogPrefix))
	fmt.Fprintf(w, "  3. Enable usage metrics delivery, target %s\n", naming.S3URI(bucketName, naming.UsageMetricsPrefix))
}
