package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"catalog-assistant/pkg/registry"

	"github.com/spf13/cobra"
)

var registryPath string

var repliesCmd = &cobra.Command{
	Use:   "replies",
	Short: "Manage the canned chit-chat reply registry",
}

var repliesInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the built-in replies to the registry file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := registry.Save(registry.Default(), registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", registryPath)
		return nil
	},
}

var repliesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the registry file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d replies.\n", len(reg.Replies))
		return nil
	},
}

var (
	addID       string
	addCategory string
	addPatterns string
	addResponse string
)

var repliesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a reply to the registry file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if errors.Is(err, fs.ErrNotExist) {
			reg = registry.Default()
		} else if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}

		reply := registry.CannedReply{
			ID:       addID,
			Category: addCategory,
			Response: addResponse,
		}
		for _, p := range strings.Split(addPatterns, ",") {
			if p = strings.TrimSpace(p); p != "" {
				reply.Patterns = append(reply.Patterns, p)
			}
		}

		if err := reg.Add(reply); err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return err
		}
		if err := registry.Save(reg, registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added reply: %s\n", addID)
		return nil
	},
}

var repliesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a reply from the registry file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.Remove(args[0]); err != nil {
			return err
		}
		if err := registry.Save(reg, registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed reply: %s\n", args[0])
		return nil
	},
}

func init() {
	repliesCmd.PersistentFlags().StringVar(&registryPath, "path", "configs/replies.json", "path to the reply registry file")

	repliesAddCmd.Flags().StringVar(&addID, "id", "", "reply id (e.g. weather)")
	repliesAddCmd.Flags().StringVar(&addCategory, "category", "", "reply category (e.g. smalltalk)")
	repliesAddCmd.Flags().StringVar(&addPatterns, "patterns", "", "comma separated trigger phrases")
	repliesAddCmd.Flags().StringVar(&addResponse, "response", "", "reply text")
	for _, f := range []string{"id", "patterns", "response"} {
		_ = repliesAddCmd.MarkFlagRequired(f)
	}

	repliesCmd.AddCommand(repliesInitCmd, repliesValidateCmd, repliesAddCmd, repliesRemoveCmd)
}
