package cmd

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"persona-panel/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the stored panel settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings as YAML, API key masked",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change individual settings",
	Example: `  persona-panel settings set --history-limit 20
  persona-panel settings set --api-source independent --api-url https://api.example/v1 --api-model gpt-4o-mini`,
	Args: cobra.NoArgs,
	RunE: runSettingsSet,
}

func init() {
	f := settingsSetCmd.Flags()
	f.Bool("auto-switch", true, "Make a saved persona the active one")
	f.Bool("sync-world-info", false, "Push saved personas into the character's world book")
	f.Uint("history-limit", settings.DefaultHistoryLimit, "Maximum number of history entries")
	f.String("api-source", string(settings.SourceMain), "Completion source: main or independent")
	f.String("api-url", "", "Independent API base URL")
	f.String("api-key", "", "Independent API key")
	f.String("api-model", "", "Independent API model")
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	st, err := openOffline(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	out, err := yaml.Marshal(st.LoadSettings(cmd.Context()).Redacted())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	st, err := openOffline(cmd)
	if err != nil {
		return err
	}
	failed := failures(st)
	s := st.LoadSettings(cmd.Context())
	f := cmd.Flags()
	if f.Changed("auto-switch") {
		s.AutoSwitchPersona, _ = f.GetBool("auto-switch")
	}
	if f.Changed("sync-world-info") {
		s.SyncToWorldInfo, _ = f.GetBool("sync-world-info")
	}
	if f.Changed("history-limit") {
		s.HistoryLimit, _ = f.GetUint("history-limit")
	}
	if f.Changed("api-source") {
		v, _ := f.GetString("api-source")
		src := settings.APISource(v)
		if src != settings.SourceMain && src != settings.SourceIndependent {
			_ = st.Close()
			return fmt.Errorf("unknown api source %q", v)
		}
		s.APISource = src
	}
	if f.Changed("api-url") {
		s.IndepAPIURL, _ = f.GetString("api-url")
	}
	if f.Changed("api-key") {
		s.IndepAPIKey, _ = f.GetString("api-key")
	}
	if f.Changed("api-model") {
		s.IndepAPIModel, _ = f.GetString("api-model")
	}

	if err := s.Validate(); err != nil {
		pterm.Warning.Printfln("%v; generation will fail until this is fixed", err)
	}
	st.SaveSettings(s)
	if err := errors.Join(failed(), st.Close()); err != nil {
		return err
	}
	pterm.Success.Println("Settings saved")
	return nil
}
