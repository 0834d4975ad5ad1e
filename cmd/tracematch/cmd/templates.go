package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/tracematch/internal/gesture"
)

var (
	templateFile string
	evaluate     bool
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Print the stored gesture templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := templateFile
		if path == "" {
			path = cfg.TemplatePath
		}

		templates, err := gesture.NewTemplateFile(path).Load()
		for _, t := range templates {
			fmt.Println(t.String())
		}
		if err != nil {
			return err
		}
		fmt.Printf("%d templates in %s\n", len(templates), path)

		if evaluate {
			e := holdOut(templates)
			fmt.Print(e.String())
			fmt.Printf("Accuracy: %.2f\n", e.Accuracy())
		}
		return nil
	},
}

func init() {
	templatesCmd.Flags().StringVarP(&templateFile, "file", "f", "", "template file to read (default from TRACEMATCH_TEMPLATE_PATH)")
	templatesCmd.Flags().BoolVar(&evaluate, "evaluate", false, "hold out the last example of each gesture and print a confusion matrix")
	rootCmd.AddCommand(templatesCmd)
}

// holdOut recognizes the last template of every gesture against the remaining ones.
func holdOut(templates []*gesture.Template) *gesture.Evaluation {
	last := make(map[string]int)
	var names []string
	for i, t := range templates {
		if _, ok := last[t.Name]; !ok {
			names = append(names, t.Name)
		}
		last[t.Name] = i
	}

	set := gesture.NewTemplateSet()
	var strokes []gesture.LabeledStroke
	for i, t := range templates {
		if last[t.Name] == i {
			strokes = append(strokes, gesture.LabeledStroke{Name: t.Name, Points: t.Vector})
			continue
		}
		set.Add(t)
	}

	return gesture.Evaluate(set, strokes, names)
}
