package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"persona-panel/content"
	"persona-panel/prompt"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Show, replace or reset the persona YAML template",
}

var templateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active template",
	Args:  cobra.NoArgs,
	RunE:  runTemplateShow,
}

var templateSetCmd = &cobra.Command{
	Use:   "set <file>",
	Short: "Replace the template with the contents of file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateSet,
}

var templateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the built-in template",
	Args:  cobra.NoArgs,
	RunE:  runTemplateReset,
}

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Show or reset the generation and refine prompts",
}

var promptsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print both prompt templates",
	Args:  cobra.NoArgs,
	RunE:  runPromptsShow,
}

var promptsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the built-in prompts",
	Args:  cobra.NoArgs,
	RunE:  runPromptsReset,
}

func init() {
	templateCmd.AddCommand(templateShowCmd, templateSetCmd, templateResetCmd)
	promptsCmd.AddCommand(promptsShowCmd, promptsResetCmd)
}

func runTemplateShow(cmd *cobra.Command, args []string) error {
	st, err := openOffline(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	fmt.Fprint(cmd.OutOrStdout(), st.LoadTemplate(cmd.Context()))
	return nil
}

func runTemplateSet(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	tmpl := string(data)
	if strings.TrimSpace(tmpl) == "" {
		return errors.New("template file is empty")
	}
	// placeholders are rendered away before checking that it is YAML
	var probe yaml.Node
	if err := yaml.Unmarshal([]byte(prompt.Render(tmpl, nil)), &probe); err != nil {
		return fmt.Errorf("template is not valid YAML: %w", err)
	}
	for _, tok := range prompt.Tokens(tmpl) {
		if !prompt.Recognized(tok) {
			pterm.Warning.Printfln("Placeholder {{%s}} is not recognized and will stay literal", tok)
		}
	}

	st, err := openOffline(cmd)
	if err != nil {
		return err
	}
	failed := failures(st)
	st.SaveTemplate(tmpl)
	if err := errors.Join(failed(), st.Close()); err != nil {
		return err
	}
	pterm.Success.Println("Template saved")
	return nil
}

func runTemplateReset(cmd *cobra.Command, args []string) error {
	st, err := openOffline(cmd)
	if err != nil {
		return err
	}
	failed := failures(st)
	st.SaveTemplate(content.Template)
	if err := errors.Join(failed(), st.Close()); err != nil {
		return err
	}
	pterm.Success.Println("Template reset to the built-in one")
	return nil
}

func runPromptsShow(cmd *cobra.Command, args []string) error {
	st, err := openOffline(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	set := st.LoadPrompts(cmd.Context())
	pterm.DefaultSection.Println("Initial generation")
	fmt.Fprintln(cmd.OutOrStdout(), set.Initial)
	pterm.DefaultSection.Println("Refine")
	fmt.Fprintln(cmd.OutOrStdout(), set.Refine)
	return nil
}

func runPromptsReset(cmd *cobra.Command, args []string) error {
	st, err := openOffline(cmd)
	if err != nil {
		return err
	}
	failed := failures(st)
	st.SavePrompts(prompt.DefaultSet())
	if err := errors.Join(failed(), st.Close()); err != nil {
		return err
	}
	pterm.Success.Println("Prompts reset to the built-in ones")
	return nil
}
