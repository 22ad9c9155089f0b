// Package message 生成外发短信正文
package message

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"DignityDialogue/internal/model"
)

// Signature 所有落款都以此结尾
const Signature = "Dignity Dialogue"

// 模板里不能出现任何亲属称谓，哪怕是子串（season 含 son，moment 含 mom）
var greetings = []string{
	"Hello %s,",
	"Dear %s,",
	"Hi %s,",
}

var bodies = map[model.MessageType][]string{
	model.MessageTypeBirthday: {
		"Happy birthday! We hope your day is filled with joy, laughter and the company of good friends.",
		"Wishing you a wonderful birthday and a year ahead full of happy surprises.",
		"On your birthday we are thinking of you and sending our warmest wishes.",
	},
	model.MessageTypeHoliday: {
		"Wishing you a peaceful and joyful holiday filled with warmth and good cheer.",
		"We hope this holiday brings you comfort, rest and many happy memories.",
		"Sending you warm holiday greetings and our very best wishes for the days ahead.",
	},
	model.MessageTypeCheckIn: {
		"We wanted to check in and see how you are doing. We hope this week has been kind to you.",
		"Just a quick note to say hello and let you know you are in our thoughts today.",
		"We hope you are feeling well and enjoying the little pleasures of the day.",
	},
	model.MessageTypeEncouragement: {
		"We hope you know how much you are valued. Keep shining, one day at a time.",
		"Sending you encouragement and strength. You have a wonderful spirit.",
		"Every new day brings fresh possibilities, and we are cheering for you.",
	},
}

// FallbackOther other 类别未填写补充说明时使用
const FallbackOther = "We wanted to reach out and send you warm thoughts."

var closings = []string{
	"\n\nWith warm regards,\n" + Signature,
	"\n\nBest wishes,\n" + Signature,
	"\n\nSincerely,\n" + Signature + " Companion Care",
}

// Generator 结构固定、措辞随机的正文生成器，可并发使用
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator src 为 nil 时使用当前时间作为种子
func NewGenerator(src rand.Source) *Generator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Generator{rnd: rand.New(src)}
}

func (g *Generator) pick(pool []string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return pool[g.rnd.Intn(len(pool))]
}

// Generate 问候行 + 空行 + 正文 + 落款。personality 目前不参与措辞。
func (g *Generator) Generate(recipientName string, category model.MessageType, categoryOther, personality string) string {
	greeting := strings.Replace(g.pick(greetings), "%s", recipientName, 1)

	pool, ok := bodies[category]
	if !ok {
		other := strings.TrimSpace(categoryOther)
		if other == "" {
			other = FallbackOther
		}
		pool = []string{other}
	}

	return greeting + "\n\n" + g.pick(pool) + g.pick(closings)
}
