package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terramo-esg/terramo/internal/session"
)

func newLoginCmd(current func() *app) *cobra.Command {
	var email, password string
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			if password == "" {
				// One line from stdin so the password stays out of shell history.
				line, err := bufio.NewReader(a.in).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password required")
				}
				password = strings.TrimSpace(line)
			}
			res, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if printOnly {
				fmt.Fprintln(a.out, res.Token)
				return nil
			}
			path, err := writeStoredToken(res.Token)
			if err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			who := email
			if s, err := session.New(res.Token); err == nil && s.Claims() != nil {
				who = fmt.Sprintf("%s (%s)", s.Claims().Email, s.Claims().Role)
			}
			fmt.Fprintln(a.out, styleSuccess.Render("logged in as "+who))
			fmt.Fprintln(a.out, styleMuted.Render("token stored in "+path))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when empty)")
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the token instead of storing it")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newInviteCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Check or redeem invitation tokens",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "check <token>",
			Short: "Validate a stakeholder invitation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := current()
				inv, err := a.client.ValidateInvitation(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !inv.Valid {
					fmt.Fprintln(a.out, styleWarning.Render(inv.Message))
					return nil
				}
				fmt.Fprintln(a.out, styleSuccess.Render("valid invitation for group "+inv.GroupID))
				return nil
			},
		},
		&cobra.Command{
			Use:   "accept <token>",
			Short: "Accept a client-admin invitation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := current()
				inv, err := a.client.AcceptClientAdminInvite(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				msg := "invitation accepted"
				if inv.Message != "" {
					msg = inv.Message
				}
				fmt.Fprintln(a.out, styleSuccess.Render(msg))
				return nil
			},
		},
	)
	return cmd
}
