package cmd

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/attrdata/pkg/archive"
	"github.com/ssargent/attrdata/pkg/codec"
	"github.com/ssargent/attrdata/pkg/convert"
	"github.com/ssargent/attrdata/pkg/schema"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <group> <attribute> <text>",
		Short: "Check a text against an attribute type",
		Long: `Check whether a text is a valid value of a group attribute.

Example:
  attrdata check grp.train speed "12,5 km/h"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			g, err := a.group(args[0])
			if err != nil {
				return err
			}
			var attr *schema.Attribute
			for _, at := range g.Attributes {
				if at.Name == args[1] {
					attr = at
				}
			}
			if attr == nil {
				return errors.Newf("attribute group %s has no attribute %s", g.PID, args[1])
			}
			if err := convert.CheckValue(attr.Type, args[2], a.model); err != nil {
				return err
			}
			cmd.Printf("%q is a valid %s\n", args[2], attr.Type.TypePID())
			return nil
		},
	}
}

func newPutCmd(a *app) *cobra.Command {
	var dryRun bool

	putCmd := &cobra.Command{
		Use:   "put <group> <json>",
		Short: "Encode a record and archive it",
		Long: `Encode a record from a JSON object and store it in the archive.
Members are texts or numbers; missing members take their default.

Example:
  attrdata put grp.train '{"label":"ICE 42","speed":"120 km/h","signal":"sig.A"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			g, err := a.group(args[0])
			if err != nil {
				return err
			}

			dec := json.NewDecoder(strings.NewReader(args[1]))
			dec.UseNumber()
			var value map[string]any
			if err := dec.Decode(&value); err != nil {
				return errors.Wrap(err, "invalid JSON record")
			}
			buf, err := a.codec.Encode(g, value)
			if err != nil {
				return err
			}
			if dryRun {
				cmd.Println(hex.EncodeToString(buf))
				return nil
			}

			arc, err := a.openArchive()
			if err != nil {
				return err
			}
			defer arc.Close()

			id, err := arc.Put(g.PID, a.codec.Version(), buf)
			if err != nil {
				return err
			}
			cmd.Println(id.String())
			return nil
		},
	}
	putCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the encoded record as hex instead of storing it")
	return putCmd
}

func newGetCmd(a *app) *cobra.Command {
	var format string

	getCmd := &cobra.Command{
		Use:   "get <group> <id>",
		Short: "Decode an archived record",
		Long: `Decode an archived record and print it.

Formats: text (default), json, hex.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			g, err := a.group(args[0])
			if err != nil {
				return err
			}
			id, err := ksuid.Parse(args[1])
			if err != nil {
				return errors.Wrap(err, "invalid record id")
			}

			arc, err := a.openArchive()
			if err != nil {
				return err
			}
			defer arc.Close()

			entry, err := arc.Get(g.PID, id)
			if err != nil {
				return err
			}
			out, err := a.render(g, entry, format)
			if err != nil {
				return err
			}
			cmd.Println(out)
			return nil
		},
	}
	getCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or hex")
	return getCmd
}

func newListCmd(a *app) *cobra.Command {
	var limit int

	listCmd := &cobra.Command{
		Use:   "list <group>",
		Short: "List archived records of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			g, err := a.group(args[0])
			if err != nil {
				return err
			}

			arc, err := a.openArchive()
			if err != nil {
				return err
			}
			defer arc.Close()

			entries, err := arc.List(g.PID, limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				text, err := a.render(g, e, "text")
				if err != nil {
					text = "<" + err.Error() + ">"
				}
				cmd.Printf("%s\t%s\t%s\n", e.ID, e.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), text)
			}
			return nil
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of records (0 lists all)")
	return listCmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <group> <id>",
		Short: "Delete an archived record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			g, err := a.group(args[0])
			if err != nil {
				return err
			}
			id, err := ksuid.Parse(args[1])
			if err != nil {
				return errors.Wrap(err, "invalid record id")
			}

			arc, err := a.openArchive()
			if err != nil {
				return err
			}
			defer arc.Close()

			if err := arc.Delete(g.PID, id); err != nil {
				return err
			}
			cmd.Printf("Deleted %s\n", id)
			return nil
		},
	}
}

// render decodes entry with the codec version it was written with.
func (a *app) render(g *schema.AttributeGroup, entry *archive.Entry, format string) (string, error) {
	if format == "hex" {
		return hex.EncodeToString(entry.Data), nil
	}
	c := a.codec
	if entry.Version != c.Version() {
		var err error
		if c, err = codec.ForVersion(entry.Version); err != nil {
			return "", err
		}
	}
	data, err := c.CreateUnmodifiableData(g, entry.Data)
	if err != nil {
		return "", err
	}

	switch format {
	case "text":
		return data.Text()
	case "json":
		value, err := data.Value()
		if err != nil {
			return "", err
		}
		out, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return "", errors.Wrap(err, "failed to marshal record")
		}
		return string(out), nil
	default:
		return "", errors.Newf("unknown format %q", format)
	}
}
