package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RowanDark/hexkit/internal/cipher"
)

// parseOps turns --op values of the form name[:key=value,...] into pipeline
// steps, rejecting names the registry does not know.
func (a *app) parseOps(specs []string) ([]cipher.OperationConfig, error) {
	if len(specs) == 0 {
		return nil, usageError{errors.New("at least one --op is required")}
	}
	ops := make([]cipher.OperationConfig, 0, len(specs))
	for _, spec := range specs {
		name, rawParams, _ := strings.Cut(spec, ":")
		name = strings.TrimSpace(name)
		if _, ok := a.registry.Get(name); !ok {
			return nil, usageError{fmt.Errorf("%w: %s", cipher.ErrUnknownOperation, name)}
		}
		op := cipher.OperationConfig{Name: name}
		if rawParams != "" {
			op.Parameters = map[string]interface{}{}
			for _, kv := range strings.Split(rawParams, ",") {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || strings.TrimSpace(k) == "" {
					return nil, usageError{fmt.Errorf("bad parameter %q in --op %s", kv, spec)}
				}
				op.Parameters[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (a *app) pipelineCmd() *cobra.Command {
	var (
		specs   []string
		reverse bool
	)
	cmd := &cobra.Command{
		Use:   "pipeline --op NAME [--op NAME...] [value...]",
		Short: "Run values through a chain of operations",
		Example: `  hexkit pipeline --op hex_encode --op base64_encode secret
  hexkit pipeline --op hex_encode --op base64_encode --reverse NzM2NTYzNzI2NTc0
  hexkit pipeline --op base64_decode:strict=true --op hexify < hashes.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := a.parseOps(specs)
			if err != nil {
				return err
			}
			p := &cipher.Pipeline{Operations: ops, Reversible: reverse}
			if reverse {
				if p, err = p.ReverseWith(a.registry); err != nil {
					return err
				}
			}
			return a.each(args, func(in []byte) error {
				out, err := p.ExecuteWith(cmd.Context(), a.registry, in)
				if err != nil {
					return err
				}
				return a.emitField(out)
			})
		},
	}
	cmd.Flags().StringArrayVar(&specs, "op", nil, "operation name, optionally name:key=value,...; repeatable")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "run the inverse of the pipeline")
	return cmd
}

func (a *app) recipes() (*cipher.RecipeManager, error) {
	rm := cipher.NewRecipeManager(a.cfg.RecipesDir)
	if err := rm.LoadRecipes(); err != nil {
		return nil, err
	}
	return rm, nil
}

func (a *app) recipeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Manage saved pipelines",
	}

	var (
		specs       []string
		description string
		tags        []string
		reversible  bool
	)
	save := &cobra.Command{
		Use:   "save NAME --op NAME [--op NAME...]",
		Short: "Save a pipeline under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := a.parseOps(specs)
			if err != nil {
				return err
			}
			rm, err := a.recipes()
			if err != nil {
				return err
			}
			recipe := &cipher.Recipe{
				Name:        args[0],
				Description: description,
				Tags:        tags,
				Pipeline:    cipher.Pipeline{Operations: ops, Reversible: reversible},
			}
			if err := rm.SaveRecipe(recipe); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "saved recipe %s (%d operations)\n", recipe.Name, len(ops))
			return nil
		},
	}
	save.Flags().StringArrayVar(&specs, "op", nil, "operation name, optionally name:key=value,...; repeatable")
	save.Flags().StringVar(&description, "description", "", "recipe description")
	save.Flags().StringSliceVar(&tags, "tag", nil, "recipe tags")
	save.Flags().BoolVar(&reversible, "reversible", false, "mark the recipe as reversible")

	var query string
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rm, err := a.recipes()
			if err != nil {
				return err
			}
			recipes := rm.ListRecipes()
			if query != "" {
				recipes = rm.SearchRecipes(query)
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			for _, r := range recipes {
				names := make([]string, len(r.Pipeline.Operations))
				for i, op := range r.Pipeline.Operations {
					names[i] = op.Name
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, strings.Join(names, " | "), r.Description)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVarP(&query, "query", "q", "", "filter by name, description or tag")

	runRecipe := &cobra.Command{
		Use:   "run NAME [value...]",
		Short: "Run a saved recipe",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rm, err := a.recipes()
			if err != nil {
				return err
			}
			name := args[0]
			if _, ok := rm.GetRecipe(name); !ok {
				return fmt.Errorf("%w: %s", cipher.ErrRecipeNotFound, name)
			}
			return a.each(args[1:], func(in []byte) error {
				out, err := rm.RunRecipe(cmd.Context(), name, in)
				if err != nil {
					return err
				}
				return a.emitField(out)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a saved recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rm, err := a.recipes()
			if err != nil {
				return err
			}
			if err := rm.DeleteRecipe(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "deleted recipe %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(save, list, runRecipe, del)
	return cmd
}

func (a *app) opsCmd() *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List available operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := a.registry.List()
			if typ != "" {
				ops = a.registry.ListByType(cipher.OperationType(typ))
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			for _, op := range ops {
				reverse := "-"
				if rev, ok := op.Reverse(); ok {
					reverse = rev.Name()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.Name(), op.Type(), reverse, op.Description())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "only list operations of this type")
	return cmd
}
