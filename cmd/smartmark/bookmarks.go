package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your bookmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient(cmd)

		bookmarks, err := c.ListBookmarks(cmd.Context(), "")
		if err != nil {
			return err
		}

		if len(bookmarks) == 0 {
			fmt.Println("No bookmarks yet.")
			return nil
		}
		for _, b := range bookmarks {
			fmt.Printf("%s  %s  %s\n", b.ID, b.Title, b.URL)
		}
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <title> <url>",
	Short: "Add a bookmark",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient(cmd)

		if err := c.InsertBookmark(cmd.Context(), args[0], args[1], ""); err != nil {
			return err
		}

		fmt.Printf("Added: %s\n", args[1])
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient(cmd)

		if err := c.DeleteBookmark(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("Removed: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(rmCmd)
}
