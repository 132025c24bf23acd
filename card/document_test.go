package card

import "testing"

func TestDefaultDocument(t *testing.T) {
	d := Default()
	if d.Template != TemplateQuote || d.AspectRatio != Ratio1x1 || d.GlassMode != GlassLight {
		t.Fatalf("默认枚举值不符: %+v", d)
	}
	if d.GradientIndex != 6 {
		t.Fatalf("默认渐变应为 6，实际 %d", d.GradientIndex)
	}
	g, ok := d.Gradient()
	if !ok || g.Name != "Aurora" {
		t.Fatalf("默认渐变应为 Aurora，实际 %+v", g)
	}
	if d.BackgroundImage != "" || d.CardImage != "" {
		t.Fatalf("默认文档不应带图片")
	}
}

func TestApplyLeavesUnspecifiedFields(t *testing.T) {
	base := Default()
	base.BackgroundImage = "ref-1"

	cases := []struct {
		name  string
		patch Patch
		check func(t *testing.T, got Document)
	}{
		{
			name:  "empty",
			patch: Patch{},
			check: func(t *testing.T, got Document) {
				if got != base {
					t.Fatalf("空 patch 不应修改文档: %+v", got)
				}
			},
		},
		{
			name:  "template",
			patch: Patch{Template: Ptr(TemplateQA)},
			check: func(t *testing.T, got Document) {
				want := base
				want.Template = TemplateQA
				if got != want {
					t.Fatalf("got %+v want %+v", got, want)
				}
			},
		},
		{
			name:  "gradient and clear background",
			patch: Patch{GradientIndex: Ptr(3), BackgroundImage: Null()},
			check: func(t *testing.T, got Document) {
				want := base
				want.GradientIndex = 3
				want.BackgroundImage = ""
				if got != want {
					t.Fatalf("got %+v want %+v", got, want)
				}
			},
		},
		{
			name:  "text",
			patch: TextPatch(FieldAnswerText, "new answer"),
			check: func(t *testing.T, got Document) {
				want := base
				want.AnswerText = "new answer"
				if got != want {
					t.Fatalf("got %+v want %+v", got, want)
				}
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := base
			got := Apply(base, tc.patch)
			if base != before {
				t.Fatalf("Apply 不应修改原快照")
			}
			tc.check(t, got)
		})
	}
}

func TestTemplateSwitchKeepsText(t *testing.T) {
	d := Default()
	for _, tmpl := range Templates() {
		next := d.Apply(Patch{Template: Ptr(tmpl)})
		for _, f := range TextFields() {
			if next.Text(f) != d.Text(f) {
				t.Fatalf("切换到 %s 后字段 %s 被修改", tmpl, f)
			}
		}
	}
}

func TestTextPatchCoversEveryField(t *testing.T) {
	for _, f := range TextFields() {
		p := TextPatch(f, "x")
		if p.IsEmpty() {
			t.Fatalf("字段 %s 未生成 patch", f)
		}
		if got := Default().Apply(p).Text(f); got != "x" {
			t.Fatalf("字段 %s 应为 x，实际 %q", f, got)
		}
	}
	if !TextPatch("bogus", "x").IsEmpty() {
		t.Fatalf("未知字段应生成空 patch")
	}
}

func TestAspectRatioSize(t *testing.T) {
	for _, r := range AspectRatios() {
		w, h := r.Size()
		g := r.Geometry()
		want := float64(g.W) / float64(g.H)
		if got := w / h; got-want > 1e-9 || want-got > 1e-9 {
			t.Fatalf("%s 宽高比 %g，期望 %g", r, got, want)
		}
	}
	if _, err := ParseAspectRatio("3:2"); err == nil {
		t.Fatalf("3:2 不应被接受")
	}
}
