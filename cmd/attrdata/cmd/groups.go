package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newGroupsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the attribute groups of the data model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			for _, g := range a.model.Groups() {
				root, err := a.codec.Compile(g)
				if err != nil {
					return err
				}
				names := make([]string, 0, root.ItemCount())
				for _, item := range root.Items() {
					names = append(names, item.Name())
				}
				size := "variable"
				if root.IsSizeFixed() {
					size = pluralBytes(root.FixedSize())
				}
				cmd.Printf("%s\t%s\t%s\n", g.PID, size, strings.Join(names, ","))
			}
			return nil
		},
	}
}

func pluralBytes(n int) string {
	if n == 1 {
		return "1 byte"
	}
	return strconv.Itoa(n) + " bytes"
}
