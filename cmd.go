/*
 *  cmd.go
 *  cellsnp
 *
 *  Created by Xianjie Huang on 05/12/20
 *  Copyright © 2020 Xianjie Huang. All rights reserved.
 */

package cellsnp

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Execute parses the command line and runs the pileup, routing all
// errors back to the caller
func Execute() error {
	st := NewSettings()
	var samFile, samFileList, sampleIDs, sampleList, chrom string

	root := &cobra.Command{
		Use:     "cellsnp",
		Short:   "Genotype candidate SNVs in single cells or bulk samples",
		Long: `cellsnp pileups indexed BAM files at candidate SNVs and writes
per-cell or per-sample allele counts as sparse matrices and VCF files.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if samFile != "" && samFileList != "" {
				return fmt.Errorf("--samFile and --samFileList are mutually exclusive")
			}
			if samFile != "" {
				st.SamFiles = strings.Split(samFile, ",")
			} else if samFileList != "" {
				var err error
				if st.SamFiles, err = LoadLines(samFileList); err != nil {
					return err
				}
			}
			if sampleIDs != "" && sampleList != "" {
				return fmt.Errorf("--sampleIDs and --sampleList are mutually exclusive")
			}
			if sampleIDs != "" {
				st.SampleIDs = strings.Split(sampleIDs, ",")
			} else if sampleList != "" {
				var err error
				if st.SampleIDs, err = LoadSampleIDs(sampleList); err != nil {
					return err
				}
			}
			if chrom != "" {
				st.Chroms = strings.Split(chrom, ",")
			}
			if err := st.Validate(); err != nil {
				return err
			}
			return NewPileuper(st).Run()
		},
	}

	flags := root.Flags()
	flags.StringVarP(&samFile, "samFile", "s", "", "comma separated list of indexed BAM files")
	flags.StringVarP(&samFileList, "samFileList", "S", "", "file listing BAM files, one per line")
	flags.StringVarP(&st.OutDir, "outDir", "O", "", "output directory")
	flags.StringVarP(&st.RegionsVCF, "regionsVCF", "R", "", "candidate SNVs, VCF or TSV, possibly gzipped")
	flags.StringVarP(&st.BarcodeFile, "barcodeFile", "b", "", "cell barcodes, one per line, possibly gzipped")
	flags.StringVarP(&sampleList, "sampleList", "i", "", "file listing sample IDs, one per line")
	flags.StringVarP(&sampleIDs, "sampleIDs", "I", "", "comma separated list of sample IDs")
	flags.IntVarP(&st.NThread, "nproc", "p", 1, "number of threads")
	flags.StringVar(&chrom, "chrom", "", "comma separated chromosomes, ignored when --regionsVCF is given")
	flags.StringVar(&st.CellTag, "cellTAG", DefaultCellTag, "BAM tag for cell barcodes, None to disable")
	flags.StringVar(&st.UMITag, "UMItag", "Auto", "BAM tag for UMIs: Auto, None or a two-character tag")
	flags.IntVar(&st.MinCount, "minCOUNT", DefaultMinCount, "minimum aggregated count to emit a SNV")
	flags.Float64Var(&st.MinMAF, "minMAF", DefaultMinMAF, "minimum minor allele frequency to emit a SNV")
	flags.IntVar(&st.MinLen, "minLEN", DefaultMinLen, "minimum aligned length for a read")
	flags.IntVar(&st.MinMapQ, "minMAPQ", DefaultMinMapQ, "minimum mapping quality for a read")
	flags.IntVar(&st.MaxFlag, "maxFLAG", DefaultMaxFlag, "maximum FLAG value for a read")
	flags.BoolVar(&st.Genotype, "genotype", false, "also genotype each sample and write the cells VCF")
	flags.BoolVar(&st.DoubleGL, "doubleGL", false, "use 5 genotype states including half dosages")
	flags.BoolVar(&st.Gzip, "gzip", false, "gzip the output files")

	return root.Execute()
}
