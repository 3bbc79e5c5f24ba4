package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Kacegz/teactl/pkg/catalog"
	"github.com/Kacegz/teactl/pkg/clierror"
	"github.com/Kacegz/teactl/pkg/rating"
)

var teaCmd = &cobra.Command{
	Use:   "tea",
	Short: "Browse and manage teas",
	Long:  `Commands to list, inspect, create, edit, delete and rate teas.`,
}

var teaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all teas",
	Long: `List all teas in the catalog.

Examples:
  teactl tea list
  teactl tea list --filter assam
  teactl tea list -o json`,
	RunE: runTeaList,
}

var teaShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one tea",
	Long: `Show a tea's details, its average rating, and — when logged in —
your own rating status for it.`,
	Args: cobra.ExactArgs(1),
	RunE: runTeaShow,
}

var teaAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new tea",
	Long: `Add a new tea to the catalog. Requires a session.

Examples:
  teactl tea add --name "Darjeeling First Flush" --origin India --description "Floral and light"`,
	RunE: runTeaAdd,
}

var teaEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a tea",
	Long: `Edit a tea you created (admins may edit any tea). Unset flags
keep their current values.`,
	Args: cobra.ExactArgs(1),
	RunE: runTeaEdit,
}

var teaDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a tea",
	Long:  `Delete a tea you created (admins may delete any tea).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTeaDelete,
}

var teaRateCmd = &cobra.Command{
	Use:   "rate <id> <score>",
	Short: "Rate a tea (1-5, once per tea)",
	Long: `Submit a rating for a tea. Each account may rate a tea exactly
once; ratings cannot be changed afterwards.`,
	Args: cobra.ExactArgs(2),
	RunE: runTeaRate,
}

func init() {
	teaListCmd.Flags().String("filter", "", "Show only teas matching this text (name, description, or origin)")
	teaAddCmd.Flags().String("name", "", "Tea name (required)")
	teaAddCmd.Flags().String("description", "", "Description")
	teaAddCmd.Flags().String("origin", "", "Country or region of origin")
	teaAddCmd.MarkFlagRequired("name")
	teaEditCmd.Flags().String("name", "", "New name")
	teaEditCmd.Flags().String("description", "", "New description")
	teaEditCmd.Flags().String("origin", "", "New origin")

	teaCmd.AddCommand(teaListCmd, teaShowCmd, teaAddCmd, teaEditCmd, teaDeleteCmd, teaRateCmd)
	rootCmd.AddCommand(teaCmd)
}

func runTeaList(cmd *cobra.Command, args []string) error {
	api, err := requireClient()
	if err != nil {
		return err
	}

	teas, err := api.ListTeas(cmd.Context())
	if err != nil {
		return mapAPIError(err, "list teas", "")
	}

	if filter, _ := cmd.Flags().GetString("filter"); filter != "" {
		teas = filterTeas(teas, filter)
	}

	if outputFormat != "table" {
		return formatOutput(teas)
	}

	if len(teas) == 0 {
		fmt.Println("No teas found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tORIGIN\tRATING\tCREATED BY")
	for _, tea := range teas {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			tea.ID, tea.Name, tea.Origin, formatRating(tea.AverageRating), tea.CreatedBy)
	}
	return w.Flush()
}

// filterTeas keeps teas whose name, description or origin contains the
// filter text, case-insensitively.
func filterTeas(teas []catalog.Tea, filter string) []catalog.Tea {
	filter = strings.ToLower(filter)
	var matched []catalog.Tea
	for _, tea := range teas {
		if strings.Contains(strings.ToLower(tea.Name), filter) ||
			strings.Contains(strings.ToLower(tea.Description), filter) ||
			strings.Contains(strings.ToLower(tea.Origin), filter) {
			matched = append(matched, tea)
		}
	}
	return matched
}

// TeaShowOutput is the JSON/YAML shape for 'tea show': the record plus the
// caller's own rating state.
type TeaShowOutput struct {
	catalog.Tea `yaml:",inline"`
	YourRating  int  `json:"yourRating,omitempty" yaml:"your_rating,omitempty"`
	CanRate     bool `json:"canRate" yaml:"can_rate"`
	CanMutate   bool `json:"canMutate" yaml:"can_mutate"`
}

func runTeaShow(cmd *cobra.Command, args []string) error {
	api, err := requireClient()
	if err != nil {
		return err
	}

	tea, err := api.GetTea(cmd.Context(), args[0])
	if err != nil {
		return mapAPIError(err, "fetch tea", args[0])
	}

	snap := awaitElevation(cmd)

	// The rating controls may only be decided after the prior-rating
	// check resolves, never from the record fetch alone.
	prior := catalog.RatingStatus{}
	if snap.Authenticated {
		coord := rating.New(api, tea.ID, nil)
		status := coord.Check(cmd.Context())
		prior = catalog.RatingStatus{Rating: status.Value}
	}

	output := TeaShowOutput{
		Tea:        *tea,
		YourRating: prior.Rating,
		CanRate:    gate.CanRate(snap, *tea, prior),
		CanMutate:  gate.CanMutate(snap, *tea),
	}

	if outputFormat != "table" {
		return formatOutput(output)
	}

	fmt.Printf("Tea: %s (%s)\n", tea.Name, tea.ID)
	if tea.Description != "" {
		fmt.Printf("  %s\n", tea.Description)
	}
	fmt.Printf("  Origin:     %s\n", tea.Origin)
	fmt.Printf("  Created by: %s\n", tea.CreatedBy)
	fmt.Printf("  Rating:     %s\n", formatRating(tea.AverageRating))
	if snap.Authenticated {
		if prior.HasRated() {
			fmt.Printf("  Your rating: %d (already submitted)\n", prior.Rating)
		} else {
			fmt.Printf("  Your rating: none — rate with 'teactl tea rate %s <1-5>'\n", tea.ID)
		}
	}
	if output.CanMutate {
		fmt.Printf("  You can edit or delete this tea.\n")
	}
	return nil
}

func runTeaAdd(cmd *cobra.Command, args []string) error {
	api, err := requireClient()
	if err != nil {
		return err
	}

	snap := sessionMgr.Snapshot()
	if !gate.CanCreate(snap) {
		return clierror.NotAuthenticated()
	}

	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	origin, _ := cmd.Flags().GetString("origin")

	tea, err := api.CreateTea(cmd.Context(), catalog.TeaInput{
		Name:        name,
		Description: description,
		Origin:      origin,
	})
	if err != nil {
		return mapAPIError(err, "add tea", name)
	}

	fmt.Printf("%s Added tea '%s' (id: %s)\n", okFmt("✓"), tea.Name, tea.ID)
	return nil
}

func runTeaEdit(cmd *cobra.Command, args []string) error {
	api, err := requireClient()
	if err != nil {
		return err
	}

	tea, err := api.GetTea(cmd.Context(), args[0])
	if err != nil {
		return mapAPIError(err, "fetch tea", args[0])
	}

	snap := awaitElevation(cmd)
	if !gate.CanMutate(snap, *tea) {
		if !snap.Authenticated {
			return clierror.NotAuthenticated()
		}
		return clierror.NotAuthorized("edit this tea")
	}

	input := catalog.TeaInput{
		Name:        tea.Name,
		Description: tea.Description,
		Origin:      tea.Origin,
	}
	if cmd.Flags().Changed("name") {
		input.Name, _ = cmd.Flags().GetString("name")
	}
	if cmd.Flags().Changed("description") {
		input.Description, _ = cmd.Flags().GetString("description")
	}
	if cmd.Flags().Changed("origin") {
		input.Origin, _ = cmd.Flags().GetString("origin")
	}

	updated, err := api.UpdateTea(cmd.Context(), tea.ID, input)
	if err != nil {
		return mapAPIError(err, "edit tea", tea.ID)
	}

	fmt.Printf("%s Updated tea '%s'\n", okFmt("✓"), updated.Name)
	return nil
}

func runTeaDelete(cmd *cobra.Command, args []string) error {
	api, err := requireClient()
	if err != nil {
		return err
	}

	tea, err := api.GetTea(cmd.Context(), args[0])
	if err != nil {
		return mapAPIError(err, "fetch tea", args[0])
	}

	snap := awaitElevation(cmd)
	if !gate.CanMutate(snap, *tea) {
		if !snap.Authenticated {
			return clierror.NotAuthenticated()
		}
		return clierror.NotAuthorized("delete this tea")
	}

	if err := api.DeleteTea(cmd.Context(), tea.ID); err != nil {
		return mapAPIError(err, "delete tea", tea.ID)
	}

	fmt.Printf("Removed tea '%s'\n", tea.Name)
	return nil
}

func runTeaRate(cmd *cobra.Command, args []string) error {
	api, err := requireClient()
	if err != nil {
		return err
	}

	score, err := strconv.Atoi(args[1])
	if err != nil {
		return clierror.InvalidScore(0)
	}
	if score < 1 || score > 5 {
		return clierror.InvalidScore(score)
	}

	snap := sessionMgr.Snapshot()
	if !snap.Authenticated {
		return clierror.NotAuthenticated()
	}

	tea, err := api.GetTea(cmd.Context(), args[0])
	if err != nil {
		return mapAPIError(err, "fetch tea", args[0])
	}

	// The refresh hook reloads the aggregate average after a successful
	// submission; the coordinator invokes it exactly once.
	coord := rating.New(api, tea.ID, func(ctx context.Context) {
		if updated, err := api.GetTea(ctx, tea.ID); err == nil {
			tea = updated
		}
	})

	status := coord.Check(cmd.Context())
	if !gate.CanRate(snap, *tea, catalog.RatingStatus{Rating: status.Value}) {
		return clierror.AlreadyRated(tea.ID)
	}

	if err := coord.Submit(cmd.Context(), score); err != nil {
		switch {
		case errors.Is(err, rating.ErrAlreadyRated):
			return clierror.AlreadyRated(tea.ID)
		case errors.Is(err, rating.ErrInvalidScore):
			return clierror.InvalidScore(score)
		default:
			return mapAPIError(err, "rate tea", tea.ID)
		}
	}

	fmt.Printf("%s Rated '%s' %d/5\n", okFmt("✓"), tea.Name, score)
	fmt.Printf("  New average: %s\n", formatRating(tea.AverageRating))
	return nil
}

// formatRating renders an average rating, or a placeholder when unrated.
func formatRating(avg *float64) string {
	if avg == nil {
		return "no ratings"
	}
	return fmt.Sprintf("%.1f/5", *avg)
}
