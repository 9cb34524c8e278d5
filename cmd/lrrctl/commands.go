package main

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lanraragi/lrrctl/internal/client"
	"github.com/lanraragi/lrrctl/internal/model"
)

func scriptCmd() *cobra.Command {
	var (
		arg    string
		fields []string
	)
	run := &cobra.Command{
		Use:   "run NAMESPACE",
		Short: "save the plugin form and run the plugin as a script, waiting for its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns := args[0]
			form, err := parseFields(fields)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("arg") {
				form.Set(ns+"_ARG", arg)
			}
			return withApp(cmd.Context(), client.Values(form), func(a *app) error {
				return a.guard.Run(cmd.Context(), ns)
			})
		},
	}
	run.Flags().StringVar(&arg, "arg", "", "argument passed to the script")
	run.Flags().StringArrayVar(&fields, "set", nil, "plugin form field as key=value, repeatable")

	cmd := &cobra.Command{Use: "script", Short: "plugin scripts"}
	cmd.AddCommand(run)
	return cmd
}

func parseFields(fields []string) (url.Values, error) {
	form := url.Values{}
	for _, f := range fields {
		k, v, ok := strings.Cut(f, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid form field %q, expected key=value", f)
		}
		form.Add(k, v)
	}
	return form, nil
}

func tempFolderCmd() *cobra.Command {
	clean := &cobra.Command{
		Use:   "clean",
		Short: "empty the temporary folder of the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), nil, func(a *app) error {
				size, err := a.ops.CleanTempFolder(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("temporary folder size: %.2f MB\n", size)
				return nil
			})
		},
	}
	cmd := &cobra.Command{Use: "tempfolder", Short: "temporary folder"}
	cmd.AddCommand(clean)
	return cmd
}

func cacheCmd() *cobra.Command {
	invalidate := &cobra.Command{
		Use:   "invalidate",
		Short: "throw away the search cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), nil, func(a *app) error {
				return a.ops.InvalidateCache(cmd.Context())
			})
		},
	}
	cmd := &cobra.Command{Use: "cache", Short: "search cache"}
	cmd.AddCommand(invalidate)
	return cmd
}

func flagsCmd() *cobra.Command {
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "mark all archives as not new",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), nil, func(a *app) error {
				return a.ops.ClearNewFlags(cmd.Context())
			})
		},
	}
	cmd := &cobra.Command{Use: "flags", Short: "archive flags"}
	cmd.AddCommand(clearCmd)
	return cmd
}

func dbCmd() *cobra.Command {
	clean := &cobra.Command{
		Use:   "clean",
		Short: "remove database entries whose file is gone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), nil, func(a *app) error {
				_, err := a.ops.CleanDatabase(cmd.Context())
				return err
			})
		},
	}

	var yes bool
	drop := &cobra.Command{
		Use:   "drop",
		Short: "reset the whole database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				ok, err := confirm("Danger! Are you *sure* you want to do this?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("aborted")
					return nil
				}
			}
			return withApp(cmd.Context(), nil, func(a *app) error {
				return a.ops.DropDatabase(cmd.Context())
			})
		},
	}
	drop.Flags().BoolVar(&yes, "yes", false, "do not ask for confirmation")

	cmd := &cobra.Command{Use: "db", Short: "database maintenance"}
	cmd.AddCommand(clean, drop)
	return cmd
}

var errNotInteractive = errors.New("stdin is not a terminal: use --yes to confirm")

func confirm(question string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errNotInteractive
	}
	fmt.Printf("%s [y/N] ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func thumbsCmd() *cobra.Command {
	var force bool
	regen := &cobra.Command{
		Use:   "regen",
		Short: "queue a thumbnail regeneration job and wait for it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), nil, func(a *app) error {
				return a.ops.RegenerateThumbnails(cmd.Context(), force)
			})
		},
	}
	regen.Flags().BoolVar(&force, "force", false, "regenerate existing thumbnails too")

	cmd := &cobra.Command{Use: "thumbs", Short: "thumbnails"}
	cmd.AddCommand(regen)
	return cmd
}

func categoryCmd() *cobra.Command {
	add := &cobra.Command{
		Use:   "add CATEGORY ARCHIVE...",
		Short: "add archives to a category",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), nil, func(a *app) error {
				return a.ops.AddArchivesToCategory(cmd.Context(), args[0], args[1:])
			})
		},
	}
	remove := &cobra.Command{
		Use:   "remove CATEGORY ARCHIVE...",
		Short: "remove archives from a category",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), nil, func(a *app) error {
				return a.ops.RemoveArchivesFromCategory(cmd.Context(), args[0], args[1:])
			})
		},
	}
	cmd := &cobra.Command{Use: "category", Short: "category membership"}
	cmd.AddCommand(add, remove)
	return cmd
}

func archiveCmd() *cobra.Command {
	del := &cobra.Command{
		Use:   "delete ID",
		Short: "delete an archive and its file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), nil, func(a *app) error {
				_, err := a.ops.DeleteArchive(cmd.Context(), args[0])
				return err
			})
		},
	}
	cmd := &cobra.Command{Use: "archive", Short: "archives"}
	cmd.AddCommand(del)
	return cmd
}

func jobCmd() *cobra.Command {
	wait := &cobra.Command{
		Use:   "wait ID",
		Short: "follow a Minion job until it ends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), nil, func(a *app) error {
				_, err := a.ops.WaitJob(cmd.Context(), model.JobID(args[0]))
				return err
			})
		},
	}
	cmd := &cobra.Command{Use: "job", Short: "Minion jobs"}
	cmd.AddCommand(wait)
	return cmd
}
