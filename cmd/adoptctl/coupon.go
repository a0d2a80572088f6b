package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pet-adoption-api/internal/domain/coupons"
)

func newCouponCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coupon",
		Short: "Operaciones sobre cupones",
	}

	var (
		appliesTo    string
		baseFeeCents int64
	)
	validate := &cobra.Command{
		Use:   "validate CODE",
		Short: "Evalúa un cupón contra la tarifa base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, ok := coupons.ParseAppliesTo(appliesTo)
			if !ok {
				return fmt.Errorf("invalid --applies-to %q (rescue_fee or promotion)", appliesTo)
			}
			var base *int64
			if cmd.Flags().Changed("base-fee-cents") {
				base = &baseFeeCents
			} else if at == coupons.AppliesToRescueFee {
				return errors.New("--base-fee-cents is required for rescue_fee")
			}

			c, err := opts.client()
			if err != nil {
				return err
			}
			ev, err := c.ValidateCoupon(cmd.Context(), args[0], at, base)
			if err != nil {
				return fmt.Errorf("validate coupon: %w", err)
			}

			out := cmd.OutOrStdout()
			if !ev.Valid {
				fmt.Fprintf(out, "invalid: %s\n", ev.Message)
				return nil
			}
			fmt.Fprintf(out, "valid: %s\n", ev.Message)
			fmt.Fprintf(out, "base %s  discount %s  final %s\n",
				formatCents(ev.BaseFeeCents), formatCents(ev.DiscountCents), formatCents(ev.FinalFeeCents))
			if ev.Free {
				fmt.Fprintln(out, "no payment required")
			}
			return nil
		},
	}
	validate.Flags().StringVar(&appliesTo, "applies-to", string(coupons.AppliesToPromotion), "promotion | rescue_fee")
	validate.Flags().Int64Var(&baseFeeCents, "base-fee-cents", 0, "tarifa base en centavos (rescue_fee)")

	cmd.AddCommand(validate)
	return cmd
}
