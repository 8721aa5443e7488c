package cmd

import (
	"fmt"

	"github.com/KaramelBytes/datatidy-cli/internal/encode"
	"github.com/spf13/cobra"
)

var (
	enColumns []string
	enMethods []string
	enMinHash int
)

type encodeOptions struct {
	columns []string
	methods []encode.Method
	minHash int
}

func defaultEncodeOptions() encodeOptions {
	return encodeOptions{methods: encode.Methods, minHash: currentConfig().HashingMinCategories}
}

var encodeFiles = map[encode.Method]string{
	encode.Label:   "dataset_label_encoding.csv",
	encode.OneHot:  "dataset_onehot_encoding.csv",
	encode.Hashing: "dataset_hashing.csv",
}

var encodeCmd = &cobra.Command{
	Use:   "encode <dataset>",
	Short: "Encode categorical columns by label, one-hot and hashing encoding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := defaultEncodeOptions()
		opt.columns = splitList(enColumns)
		if len(enMethods) > 0 {
			opt.methods = nil
			for _, m := range enMethods {
				method, err := encode.ParseMethod(m)
				if err != nil {
					return err
				}
				opt.methods = append(opt.methods, method)
			}
		}
		if cmd.Flags().Changed("min-hash-categories") {
			if enMinHash <= 0 {
				return fmt.Errorf("--min-hash-categories must be positive")
			}
			opt.minHash = enMinHash
		}
		w := &console{w: cmd.OutOrStdout()}
		return runEncode(w, jobSpec{utility: "encode", dirName: dirEncode, input: args[0]}, opt)
	},
}

func runEncode(w *console, spec jobSpec, opt encodeOptions) error {
	j, err := startJob(w, spec)
	if err != nil || j == nil {
		return err
	}
	for _, m := range opt.methods {
		out := encode.Encode(j.data, m, encode.Options{Columns: opt.columns, MinHashCategories: opt.minHash, Logger: j.log})
		if err := j.save(encodeFiles[m], out); err != nil {
			return err
		}
	}
	return j.finish()
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringSliceVar(&enColumns, "columns", nil, "comma-separated categorical columns to encode (default all non-numeric columns)")
	encodeCmd.Flags().StringSliceVar(&enMethods, "methods", nil, "encodings to run: label,onehot,hashing (default all)")
	encodeCmd.Flags().IntVar(&enMinHash, "min-hash-categories", encode.DefaultMinHashCategories, "warn when hashing fewer categories than this")
}
