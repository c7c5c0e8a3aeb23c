package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RowanDark/hexkit/internal/cipher"
	"github.com/RowanDark/hexkit/internal/codec"
	"github.com/RowanDark/hexkit/internal/logging"
)

// codecName resolves the --codec flag against the configured default.
func (a *app) codecName(flag string) (string, error) {
	name := flag
	if name == "" {
		name = a.cfg.DefaultCodec
	}
	alpha, ok := codec.Lookup(name)
	if !ok {
		return "", usageError{fmt.Errorf("unknown codec %q (known: %s)", name, strings.Join(codec.Names(), ", "))}
	}
	return fmt.Sprint(alpha), nil
}

func codecFlagUsage() string {
	return "alphabet: " + strings.Join(codec.Names(), ", ") + " (default from config)"
}

func (a *app) encodeCmd() *cobra.Command {
	var codecFlag string
	cmd := &cobra.Command{
		Use:   "encode [value...]",
		Short: "Encode values in a base64/base32 alphabet",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := a.codecName(codecFlag)
			if err != nil {
				return err
			}
			return a.each(args, func(in []byte) error {
				out, err := a.registry.Execute(cmd.Context(), name+"_encode", in, nil)
				if err != nil {
					return err
				}
				return a.emit(out)
			})
		},
	}
	cmd.Flags().StringVarP(&codecFlag, "codec", "c", "", codecFlagUsage())
	return cmd
}

func (a *app) decodeCmd() *cobra.Command {
	var (
		codecFlag string
		strict    bool
	)
	cmd := &cobra.Command{
		Use:   "decode [value...]",
		Short: "Decode values from a base64/base32 alphabet",
		Long: `Decode values from a base64/base32 alphabet. Results that are not safe as
plain text are printed as $HEX[...].

Symbols outside the alphabet decode as zero unless --strict is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := a.codecName(codecFlag)
			if err != nil {
				return err
			}
			params := map[string]interface{}{"strict": strict}
			return a.each(args, func(in []byte) error {
				out, err := a.registry.Execute(cmd.Context(), name+"_decode", in, params)
				if err != nil {
					a.logger.Warn("decode failed", logging.CandidateWith(a.policy(), "input", in))
					return err
				}
				return a.emitField(out)
			})
		},
	}
	cmd.Flags().StringVarP(&codecFlag, "codec", "c", "", codecFlagUsage())
	cmd.Flags().BoolVar(&strict, "strict", false, "reject symbols outside the alphabet")
	return cmd
}

func (a *app) hexifyCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "hexify [value...]",
		Short: "Render values as $HEX[...] when they are not safe as plain text",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.policy()
			return a.each(args, func(in []byte) error {
				if force {
					return a.emit(p.Escape(in))
				}
				return a.emit(p.Render(in))
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "always escape")
	return cmd
}

func (a *app) unhexifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unhexify [value...]",
		Short: "Decode $HEX[...] values to raw bytes; other values pass through",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.policy()
			return a.each(args, func(in []byte) error {
				return a.emit(p.Parse(in))
			})
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [value...]",
		Short: "Report whether values need escaping and why",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.policy()
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			err := a.each(args, func(in []byte) error {
				v := p.Check(in)
				var reasons []string
				if v.Unprintable {
					reasons = append(reasons, "unprintable")
				}
				if v.HasSeparator {
					reasons = append(reasons, "separator")
				}
				if v.LooksEscaped {
					reasons = append(reasons, "looks-escaped")
				}
				verdict := "plain"
				if v.Needed() {
					verdict = "escape"
				}
				_, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Render(in), verdict, strings.Join(reasons, ","))
				return err
			})
			if flushErr := tw.Flush(); err == nil {
				err = flushErr
			}
			return err
		},
	}
}

func (a *app) detectCmd() *cobra.Command {
	var decode bool
	cmd := &cobra.Command{
		Use:   "detect [value...]",
		Short: "Guess the encoding of values",
		RunE: func(cmd *cobra.Command, args []string) error {
			detector := cipher.NewSmartDetector()
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			err := a.each(args, func(in []byte) error {
				if decode {
					results, err := cipher.DecodeAllWith(cmd.Context(), a.registry, in)
					if err != nil {
						return err
					}
					for _, res := range results {
						out := res.Error
						if res.Success {
							out = string(a.policy().Render(res.Decoded))
						}
						fmt.Fprintf(tw, "%s\t%.2f\t%s\n", res.Detection.Encoding, res.Detection.Confidence, out)
					}
					return nil
				}
				detections, err := detector.Detect(cmd.Context(), in)
				if err != nil {
					return err
				}
				if len(detections) == 0 {
					fmt.Fprintf(tw, "%s\t-\tno encoding detected\n", a.policy().Render(in))
				}
				for _, d := range detections {
					fmt.Fprintf(tw, "%s\t%.2f\t%s\n", d.Encoding, d.Confidence, d.Reasoning)
				}
				return nil
			})
			if flushErr := tw.Flush(); err == nil {
				err = flushErr
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&decode, "decode", "d", false, "run the suggested decoder for each detection")
	return cmd
}
