package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shivavenkatesh/wordline/pkg/types"
)

func TestIsLikelyTimestamp(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"00:12", true},
		{"1:02:03", true},
		{"2024年3月5日", true},
		{"[2024年3月5日10:30]", true},
		{"2024年3", true},
		{"3月5号", true},
		{"张三", false},
		{"Alice", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLikelyTimestamp(tt.text))
		})
	}
}

func TestIsInternalMessage(t *testing.T) {
	assert.True(t, IsInternalMessage("当前段落为空，无需优化"))
	assert.True(t, IsInternalMessage("[空]"))
	assert.True(t, IsInternalMessage("[00:01:02]"))
	assert.True(t, IsInternalMessage("好的，我将按要求处理"))
	assert.True(t, IsInternalMessage("段落内容如下"))
	assert.False(t, IsInternalMessage("今天我们聊聊产品规划。"))
	assert.False(t, IsInternalMessage(""))
}

func TestMarkdown(t *testing.T) {
	blocks := []types.Block{
		{Speaker: "张三", Timestamp: "00:01", Content: "你好。\n\n今天聊聊。"},
		{Speaker: "李四", Content: "好的。"},
		{Speaker: "2024年3月5日", Content: "日期行"},
		{Speaker: "王五", Content: "[空]"},
		{Speaker: "赵六", Content: "   "},
		{Content: "无名发言。"},
	}

	want := "# 访谈\n\n" +
		"### 张三 [00:01]\n\n> 你好。\n>\n> 今天聊聊。\n\n" +
		"### 李四\n\n> 好的。\n\n" +
		"> 无名发言。\n"

	assert.Equal(t, want, Markdown(blocks, "访谈"))
}

func TestMarkdown_PrefersProcessed(t *testing.T) {
	blocks := []types.Block{{Speaker: "张三", Content: "嗯,好", Processed: "好。"}}

	assert.Equal(t, "### 张三\n\n> 好。\n", Markdown(blocks, ""))
}

func TestMarkdown_TimestampOnlyHeadingDropped(t *testing.T) {
	blocks := []types.Block{{Timestamp: "00:05", Content: "内容"}}

	assert.Equal(t, "> 内容\n", Markdown(blocks, ""))
}

func TestMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "\n", Markdown(nil, ""))
}
