/*
Package cli provides command-line helpers for the houdini command.

Output Formatting:

Commands that print results accept --output text|json:

	format, err := cli.ParseOutputFormat(flag)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)

Results implementing Texter control their own text rendering.

Progress Reporting:

	progress := cli.NewDeliveryProgress(cmd.ErrOrStderr(), int64(n))
	// after every send, from any goroutine:
	progress.Report(delivered, failed)
	// once delivery has finished:
	progress.Done(delivered, failed)

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
