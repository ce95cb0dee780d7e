package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"persona-panel/prompt"
)

var renderIn struct {
	file    string
	user    string
	char    string
	wi      string
	tags    []string
	input   string
	current string
}

var renderCmd = &cobra.Command{
	Use:       "render [initial|refine]",
	Short:     "Print a stored prompt rendered with the given values",
	Long:      "Print a stored prompt, or the template in --file, rendered with the values given as flags. Nothing is sent anywhere.",
	Example:   `  persona-panel render initial --user Alice --char Seraphina --tags fantasy,forest --input "a shy herbalist"`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"initial", "refine"},
	RunE:      runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderIn.file, "file", "f", "", "Render this template file instead of a stored prompt")
	f.StringVar(&renderIn.user, "user", "", "Value of {{user}}")
	f.StringVar(&renderIn.char, "char", "", "Value of {{char}}")
	f.StringVar(&renderIn.wi, "wi", "", "Value of {{wi}}")
	f.StringSliceVar(&renderIn.tags, "tags", nil, "Values joined into {{tags}}")
	f.StringVar(&renderIn.input, "input", "", "Value of {{input}}")
	f.StringVar(&renderIn.current, "current", "", "Value of {{current}} for refine")
}

func runRender(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if renderIn.file != "" {
		data, err := os.ReadFile(renderIn.file)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, prompt.Render(string(data), prompt.Bindings{
			prompt.User:    renderIn.user,
			prompt.Char:    renderIn.char,
			prompt.WI:      renderIn.wi,
			prompt.Tags:    prompt.JoinTags(renderIn.tags),
			prompt.Input:   renderIn.input,
			prompt.Current: renderIn.current,
		}))
		return nil
	}

	which := "initial"
	if len(args) == 1 {
		which = args[0]
	}
	st, err := openOffline(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	set := st.LoadPrompts(cmd.Context())

	switch which {
	case "initial":
		fmt.Fprintln(out, prompt.BuildInitial(set.Initial, prompt.InitialRequest{
			UserName:  renderIn.user,
			CharName:  renderIn.char,
			WorldInfo: renderIn.wi,
			Tags:      renderIn.tags,
			Input:     renderIn.input,
			Template:  st.LoadTemplate(cmd.Context()),
		}))
	case "refine":
		fmt.Fprintln(out, prompt.BuildRefine(set.Refine, prompt.RefineRequest{
			CharName:  renderIn.char,
			WorldInfo: renderIn.wi,
			Current:   renderIn.current,
			Input:     renderIn.input,
		}))
	default:
		return fmt.Errorf("unknown prompt %q, want initial or refine", which)
	}
	return nil
}
