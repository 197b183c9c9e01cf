package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/peterh/liner"

	"linecalc/lang"
)

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".linecalc_history")
}

func runREPL(ev *lang.Evaluator) error {
	rl := liner.NewLiner()
	defer rl.Close()
	rl.SetCtrlCAborts(true)

	hist := historyPath()
	if hist != "" {
		if f, err := os.Open(hist); err == nil {
			rl.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if hist == "" {
			return
		}
		if f, err := os.Create(hist); err == nil {
			rl.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println("linecalc — type a calculation, a blank line starts a new section, ctrl-d exits")
	for {
		line, err := rl.Prompt("> ")
		if err != nil {
			// ctrl-c aborts the current line, ctrl-d (io.EOF) exits.
			if err == liner.ErrPromptAborted {
				continue
			}
			fmt.Println()
			return nil
		}
		if line != "" {
			rl.AppendHistory(line)
		}
		if out := lang.Format(ev.Evaluate(line)); out != "" {
			fmt.Println(out)
		}
	}
}
