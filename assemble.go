package fieldbind

import (
	"math"
	"sort"
	"strconv"
)

// Assignment хранит одну строку таблицы: путь и сырое значение.
type Assignment struct {
	Path  Path
	Value string
}

// Conversion описывает пересоздание контейнера, когда поздняя строка
// противоречит раннему выбору объект/массив.
type Conversion struct {
	Path    string
	From    string
	To      string
	Dropped []string // ключи, потерянные при object → array
}

type AssembleOptions struct {
	// Coercion задаёт политику приведения; нулевое значение оставляет строки как есть.
	Coercion Coercion
	// OnConvert вызывается при каждом пересоздании контейнера.
	OnConvert func(Conversion)
	// MaxIndex ограничивает индекс массива в пути; 0 означает DefaultMaxIndex.
	MaxIndex int
	// OnSkip получает путь строки или обязательного поля, отброшенный из-за индекса больше MaxIndex.
	OnSkip func(path string)
}

func (o AssembleOptions) maxIndex() int {
	switch {
	case o.MaxIndex <= 0:
		return DefaultMaxIndex
	case o.MaxIndex > math.MaxInt32:
		return math.MaxInt32
	}
	return o.MaxIndex
}

// Assembler собирает вложенное дерево из плоских присваиваний.
// Каждый вызов Assemble строит своё дерево, общих данных между вызовами нет.
type Assembler struct {
	opts AssembleOptions
}

func NewAssembler(opts AssembleOptions) *Assembler {
	return &Assembler{opts: opts}
}

// Assemble с политикой приведения по умолчанию.
func Assemble(rows []Assignment, required []string) map[string]any {
	return NewAssembler(AssembleOptions{Coercion: DefaultCoercion()}).Assemble(rows, required)
}

// Assemble строит дерево в три прохода:
//  1. форма массивов: максимальный индекс и поля элементов для каждого префикса;
//  2. заполнение в порядке строк, последнее значение пути побеждает;
//  3. согласование: каждый обязательный путь существует, отсутствующие получают "".
//
// Корень всегда объект. Дерево не отдаётся наружу до завершения всех проходов.
func (a *Assembler) Assemble(rows []Assignment, required []string) map[string]any {
	b := &builder{opts: a.opts, maxIndex: a.opts.maxIndex()}
	valid := make([]Assignment, 0, len(rows))
	for _, r := range rows {
		if len(r.Path) > 0 && b.inRange(r.Path) {
			valid = append(valid, r)
		}
	}
	b.shapes = discoverShapes(valid)

	root := map[string]any{}
	for _, r := range valid {
		head := r.Path[0]
		root[head] = b.put(root[head], head, r.Path[1:], b.opts.Coercion.Coerce(r.Value))
	}
	for _, p := range NewFieldSet(required...).Slice() {
		segs := SplitPath(p)
		if len(segs) == 0 || !b.inRange(segs) {
			continue
		}
		head := segs[0]
		root[head] = b.ensure(root[head], head, segs[1:])
	}
	return root
}

// inRange: все индексы пути не больше b.maxIndex. Иначе путь сообщается в OnSkip.
func (b *builder) inRange(p Path) bool {
	for _, seg := range p {
		if idx, ok := Index(seg); ok && idx > b.maxIndex {
			if b.opts.OnSkip != nil {
				b.opts.OnSkip(p.String())
			}
			return false
		}
	}
	return true
}

type arrayShape struct {
	max    int
	fields map[string]struct{} // пути внутри элемента относительно индекса
}

func discoverShapes(rows []Assignment) map[string]*arrayShape {
	shapes := map[string]*arrayShape{}
	for _, r := range rows {
		for i := 0; i+1 < len(r.Path); i++ {
			idx, ok := Index(r.Path[i+1])
			if !ok {
				continue
			}
			key := r.Path[:i+1].String()
			sh := shapes[key]
			if sh == nil {
				sh = &arrayShape{max: -1, fields: map[string]struct{}{}}
				shapes[key] = sh
			}
			if idx > sh.max {
				sh.max = idx
			}
			if i+2 < len(r.Path) {
				sh.fields[r.Path[i+2:].String()] = struct{}{}
			}
		}
	}
	return shapes
}

type builder struct {
	opts     AssembleOptions
	maxIndex int
	shapes   map[string]*arrayShape
}

func (b *builder) put(node any, prefix string, segs Path, v any) any {
	if len(segs) == 0 {
		return v
	}
	seg := segs[0]
	child := JoinPath(prefix, seg)
	if idx, ok := Index(seg); ok {
		arr := pad(b.asArray(node, prefix), idx+1)
		arr[idx] = b.put(arr[idx], child, segs[1:], v)
		return arr
	}
	obj := b.asObject(node, prefix)
	obj[seg] = b.put(obj[seg], child, segs[1:], v)
	return obj
}

func (b *builder) asArray(node any, prefix string) []any {
	switch n := node.(type) {
	case []any:
		return n
	case map[string]any:
		// запасной путь с потерями: выживают только числовые ключи
		arr, dropped := objectToArray(n)
		b.report(Conversion{Path: prefix, From: "object", To: "array", Dropped: dropped})
		return b.presize(arr, prefix)
	}
	return b.presize(nil, prefix)
}

func (b *builder) asObject(node any, prefix string) map[string]any {
	switch n := node.(type) {
	case map[string]any:
		return n
	case []any:
		obj := make(map[string]any, len(n))
		for i, v := range n {
			obj[strconv.Itoa(i)] = v
		}
		b.report(Conversion{Path: prefix, From: "array", To: "object"})
		return obj
	}
	return map[string]any{}
}

// presize дорастит массив до найденного в первом проходе размера.
func (b *builder) presize(arr []any, prefix string) []any {
	sh := b.shapes[prefix]
	if sh == nil {
		if arr == nil {
			arr = []any{}
		}
		return arr
	}
	for i := len(arr); i <= sh.max; i++ {
		arr = append(arr, b.element(sh, JoinPath(prefix, strconv.Itoa(i))))
	}
	return arr
}

// element строит заготовку элемента с единой формой для массивов объектов.
func (b *builder) element(sh *arrayShape, prefix string) any {
	if len(sh.fields) == 0 {
		return ""
	}
	fields := make([]string, 0, len(sh.fields))
	for f := range sh.fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var el any
	for _, f := range fields {
		el = b.ensure(el, prefix, SplitPath(f))
	}
	return el
}

// ensure создаёт путь, если его нет. Непустые скаляры не трогает,
// "" превращает в контейнер, нечисловой сегмент на массиве применяет к каждому элементу.
func (b *builder) ensure(node any, prefix string, segs Path) any {
	if len(segs) == 0 {
		if node == nil {
			return ""
		}
		return node
	}
	seg := segs[0]
	child := JoinPath(prefix, seg)
	switch n := node.(type) {
	case map[string]any:
		n[seg] = b.ensure(n[seg], child, segs[1:])
		return n
	case []any:
		if idx, ok := Index(seg); ok {
			n = pad(n, idx+1)
			n[idx] = b.ensure(n[idx], child, segs[1:])
			return n
		}
		// поле элемента коллекции: items.price внутри each items
		for i := range n {
			n[i] = b.ensure(n[i], JoinPath(prefix, strconv.Itoa(i)), segs)
		}
		return n
	case string:
		if n != "" {
			return n
		}
	case nil:
	default:
		return n
	}
	if idx, ok := Index(seg); ok {
		arr := pad(nil, idx+1)
		arr[idx] = b.ensure(arr[idx], child, segs[1:])
		return arr
	}
	return map[string]any{seg: b.ensure(nil, child, segs[1:])}
}

func (b *builder) report(c Conversion) {
	if b.opts.OnConvert != nil {
		b.opts.OnConvert(c)
	}
}

func pad(arr []any, n int) []any {
	for len(arr) < n {
		arr = append(arr, "")
	}
	return arr
}

func objectToArray(obj map[string]any) ([]any, []string) {
	var dropped []string
	size := 0
	for k := range obj {
		if i, ok := Index(k); ok {
			if i+1 > size {
				size = i + 1
			}
			continue
		}
		dropped = append(dropped, k)
	}
	sort.Strings(dropped)
	arr := pad(nil, size)
	for k, v := range obj {
		if i, ok := Index(k); ok {
			arr[i] = v
		}
	}
	return arr, dropped
}
