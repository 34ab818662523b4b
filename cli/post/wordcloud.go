package post

import (
	"fmt"
	"image/color"
	"image/png"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bbalet/stopwords"
	"github.com/psykhi/wordclouds"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zvonler/talkarchive/configuration"
	"gopkg.in/yaml.v2"
)

var (
	board         string
	styleFile     string
	outputFile    string
	stopwordsFile string
	maxWords      int
)

var wordRe = regexp.MustCompile("[A-Za-z]+")

var DefaultColors = []color.RGBA{
	{0x1b, 0x1b, 0x1b, 0xff},
	{0x48, 0x48, 0x4B, 0xff},
	{0x59, 0x3a, 0xee, 0xff},
	{0x65, 0xCD, 0xFA, 0xff},
	{0x70, 0xD6, 0xBF, 0xff},
}

type Conf struct {
	FontMaxSize     int    `yaml:"font_max_size"`
	FontMinSize     int    `yaml:"font_min_size"`
	RandomPlacement bool   `yaml:"random_placement"`
	FontFile        string `yaml:"font_file"`
	Colors          []color.RGBA
	BackgroundColor color.RGBA `yaml:"background_color"`
	Width           int
	Height          int
	Mask            MaskConf
	SizeFunction    *string `yaml:"size_function"`
	Debug           bool
}

type MaskConf struct {
	File  string
	Color color.RGBA
}

var DefaultConf = Conf{
	FontMaxSize:     700,
	FontMinSize:     10,
	RandomPlacement: false,
	FontFile:        "./fonts/roboto/Roboto-Regular.ttf",
	Colors:          DefaultColors,
	BackgroundColor: color.RGBA{255, 255, 255, 255},
	Width:           4096,
	Height:          4096,
	Debug:           false,
}

func initWordcloudCommand() *cobra.Command {
	wordcloudCommand := &cobra.Command{
		Use:   "wordcloud [--board NAME]",
		Short: "Create a word cloud from the extracted posts",
		Args:  cobra.NoArgs,
		Run:   runWordcloudCommand,
	}

	wordcloudCommand.Flags().StringVar(&board, "board", "", "Only use posts of this board")
	wordcloudCommand.Flags().StringVar(&styleFile, "style", "wordcloud.yaml", "YAML file with the word cloud style")
	wordcloudCommand.Flags().StringVar(&outputFile, "output", "wordcloud.png", "Path to output image")
	wordcloudCommand.Flags().StringVar(&stopwordsFile, "stopwords", "", "Extra stop words, one per line")
	wordcloudCommand.Flags().IntVar(&maxWords, "max-words", 200, "Number of words in the cloud")

	return wordcloudCommand
}

// countWords counts the words of at least three letters that are not stop
// words.
func countWords(contents []string) map[string]int {
	counts := map[string]int{}
	for _, content := range contents {
		relevant := stopwords.CleanString(content, "en", true)
		for _, w := range wordRe.FindAllString(relevant, -1) {
			if lw := strings.ToLower(w); len(lw) >= 3 {
				counts[lw] += 1
			}
		}
	}
	return counts
}

// topWords keeps the max most frequent words.
func topWords(counts map[string]int, max int) map[string]int {
	wordList := make([]string, 0, len(counts))
	for w := range counts {
		wordList = append(wordList, w)
	}
	sort.Slice(wordList, func(i, j int) bool {
		return counts[wordList[i]] > counts[wordList[j]]
	})
	if len(wordList) > max {
		wordList = wordList[:max]
	}

	top := make(map[string]int, len(wordList))
	for _, w := range wordList {
		top[w] = counts[w]
	}
	return top
}

func loadConf(path string) Conf {
	conf := DefaultConf
	content, err := os.ReadFile(path)
	if err == nil {
		if err = yaml.Unmarshal(content, &conf); err != nil {
			log.WithError(err).Warn("Failed to decode style, using defaults instead")
			conf = DefaultConf
		}
	} else {
		log.Info("No style file. Using defaults")
	}
	return conf
}

func runWordcloudCommand(cmd *cobra.Command, args []string) {
	adb, err := configuration.OpenExistingDatabase()
	if err != nil {
		log.Fatal(err)
	}
	defer adb.Close()

	if stopwordsFile != "" {
		stopwords.LoadStopWordsFromFile(stopwordsFile, "en", "\n")
	}

	displayWords := topWords(countWords(adb.PostContents(board)), maxWords)
	if len(displayWords) == 0 {
		log.Fatal("No words to draw")
	}
	log.WithField("words", len(displayWords)).Debug("Drawing word cloud")

	conf := loadConf(styleFile)

	var boxes []*wordclouds.Box
	if conf.Mask.File != "" {
		boxes = wordclouds.Mask(
			conf.Mask.File,
			conf.Width,
			conf.Height,
			conf.Mask.Color)
	}

	colors := make([]color.Color, 0)
	for _, c := range conf.Colors {
		colors = append(colors, c)
	}

	start := time.Now()
	oarr := []wordclouds.Option{wordclouds.FontFile(conf.FontFile),
		wordclouds.FontMaxSize(conf.FontMaxSize),
		wordclouds.FontMinSize(conf.FontMinSize),
		wordclouds.Colors(colors),
		wordclouds.MaskBoxes(boxes),
		wordclouds.Height(conf.Height),
		wordclouds.Width(conf.Width),
		wordclouds.RandomPlacement(conf.RandomPlacement),
		wordclouds.BackgroundColor(conf.BackgroundColor)}
	if conf.SizeFunction != nil {
		oarr = append(oarr, wordclouds.WordSizeFunction(*conf.SizeFunction))
	}
	if conf.Debug {
		oarr = append(oarr, wordclouds.Debug())
	}
	w := wordclouds.NewWordcloud(displayWords, oarr...)

	img := w.Draw()
	f, err := os.Create(outputFile)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Done in %v\n", time.Since(start))
}
