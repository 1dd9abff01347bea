package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/normalize"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/wire"
)

type decodeOptions struct {
	class  string
	legacy bool
}

// newDecodeCommand prints how payloads decode, without a broker. Payloads
// come from the arguments or, when there are none, one per line on stdin.
func newDecodeCommand() *cobra.Command {
	o := &decodeOptions{}
	cmd := &cobra.Command{
		Use:   "decode [payload...]",
		Short: "Decode telemetry payloads and print their fields",
		Example: `  truckhub decode --class status "{12,30,45,35.77,51.47,G,432,11,1A2B,3C4D,54.5,7,L,23.5,18,102,0,Y,120.5,V,V}"
  cat payloads.txt | truckhub decode --class security`,
		RunE: func(cmd *cobra.Command, args []string) error {
			class, err := model.ParseClass(o.class)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args, err = readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			return runDecode(cmd.OutOrStdout(), class, o.legacy, args)
		},
	}
	cmd.Flags().StringVar(&o.class, "class", string(model.ClassStatus), "Message class: status, rfid, sms, gyroscope or security.")
	cmd.Flags().BoolVar(&o.legacy, "legacy", false, "Also accept the legacy status layout.")
	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

func runDecode(w io.Writer, class model.Class, legacy bool, payloads []string) error {
	decoder := wire.NewDecoder(wire.WithLegacyLayouts(legacy))
	// No resolver: cell-tower positions stay unresolved.
	normalizer := normalize.New(nil)

	failed := 0
	for i, payload := range payloads {
		table := uitable.New()
		table.MaxColWidth = 60
		table.Wrap = true

		rec, err := decoder.Decode(class, payload)
		if err != nil {
			failed++
			table.AddRow("PAYLOAD", payload)
			table.AddRow("ERROR", err.Error())
			fmt.Fprintf(w, "%s\n\n", table)
			continue
		}
		locErr := normalizer.Normalize(context.Background(), rec)

		schema, _ := wire.SchemaOf(rec)
		table.AddRow("FIELD", "VALUE")
		for j, name := range schema.Fields {
			table.AddRow(name, rec.Meta().Fields[j])
		}
		for _, kv := range derived(rec) {
			table.AddRow(kv[0], kv[1])
		}
		if locErr != nil {
			table.AddRow("location", "unresolved: "+locErr.Error())
		}

		fmt.Fprintf(w, "#%d %s v%d\n%s\n\n", i+1, class, schema.Version, table)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d payloads failed to decode", failed, len(payloads))
	}
	return nil
}

// derived lists the display values normalization adds to rec.
func derived(rec model.Record) [][2]string {
	switch r := rec.(type) {
	case *model.StatusRecord:
		return [][2]string{
			{"-> source", r.GPSSource},
			{"-> battery", r.BatteryBand},
			{"-> lock", r.LockState},
			{"-> signal", r.SignalStrength},
			{"-> geofence", r.Geofence},
			{"-> spoofing", r.Spoofing},
			{"-> jamming", r.Jamming},
		}
	case *model.RFIDEvent:
		return [][2]string{{"-> action", r.Action}}
	case *model.SMSEvent:
		return [][2]string{{"-> action", r.Action}}
	case *model.SecurityAlert:
		return [][2]string{{"-> alert", r.Alert}}
	default:
		return nil
	}
}
