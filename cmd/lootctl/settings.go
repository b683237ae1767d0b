package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newSettingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write the global settings database",
	}

	get := &cobra.Command{
		Use:   "get <name>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.offlineSession()
			defer closeSession(s)

			ctx := commandContext(cmd)
			st, err := s.Settings(ctx)
			if err != nil {
				return err
			}
			value, ok, err := st.Lookup(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("setting %q is not set", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Store a setting, replacing any previous value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.offlineSession()
			defer closeSession(s)

			ctx := commandContext(cmd)
			st, err := s.Settings(ctx)
			if err != nil {
				return err
			}
			return st.Set(ctx, args[0], args[1])
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.offlineSession()
			defer closeSession(s)

			ctx := commandContext(cmd)
			st, err := s.Settings(ctx)
			if err != nil {
				return err
			}
			return st.Delete(ctx, args[0])
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print every setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.offlineSession()
			defer closeSession(s)

			ctx := commandContext(cmd)
			st, err := s.Settings(ctx)
			if err != nil {
				return err
			}
			all, err := st.GetAll(ctx)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(all))
			for name := range all {
				names = append(names, name)
			}
			slices.Sort(names)
			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintf(out, "%s=%s\n", name, all[name])
			}
			return nil
		},
	}

	cmd.AddCommand(get, set, del, list)
	return cmd
}

func newFriendsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "Manage the friends list",
	}

	add := &cobra.Command{
		Use:   "add <serial> <name>",
		Short: "Add or rename a friend",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			serial, err := parseSerial(args[0])
			if err != nil {
				return err
			}
			name := strings.TrimSpace(strings.Join(args[1:], " "))
			if name == "" {
				return fmt.Errorf("friend name is required")
			}

			s := c.offlineSession()
			defer closeSession(s)
			ctx := commandContext(cmd)
			friends, err := s.Friends(ctx)
			if err != nil {
				return err
			}
			return friends.Add(ctx, serial, name)
		},
	}

	remove := &cobra.Command{
		Use:   "remove <serial>",
		Short: "Remove a friend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serial, err := parseSerial(args[0])
			if err != nil {
				return err
			}

			s := c.offlineSession()
			defer closeSession(s)
			ctx := commandContext(cmd)
			friends, err := s.Friends(ctx)
			if err != nil {
				return err
			}
			return friends.Remove(ctx, serial)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the friends list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.offlineSession()
			defer closeSession(s)
			ctx := commandContext(cmd)
			friends, err := s.Friends(ctx)
			if err != nil {
				return err
			}
			all, err := friends.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range all {
				added := "-"
				if !f.AddedAt.IsZero() {
					added = humanize.Time(f.AddedAt)
				}
				fmt.Fprintf(out, "0x%08X  %-24s  %s\n", f.Serial, f.Name, added)
			}
			return nil
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}
