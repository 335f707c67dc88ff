package esent

//Column is a column definition from the catalog. Columns are immutable and shared by every
//record of their table.
type Column struct {
	name     string
	id       uint32
	typ      ColumnType
	size     uint32
	flags    uint32
	codePage uint32
	//offset of a fixed column's value inside a record, 0 for other classes
	offset int
	//inherited from a template table
	template bool
}

//Name is unique within the table
func (c *Column) Name() string { return c.name }

//ID is the on-disk column identifier
func (c *Column) ID() uint32 { return c.id }

//Type is the declared column type
func (c *Column) Type() ColumnType { return c.typ }

//Size is the declared size, the exact width for fixed columns and a maximum for the others
func (c *Column) Size() uint32 { return c.size }

//Flags are the JET_bitColumn* flags
func (c *Column) Flags() uint32 { return c.flags }

//CodePage of text columns, 0 means the default (cp1252)
func (c *Column) CodePage() uint32 { return c.codePage }

//Storage is the record layout class, decided by the identifier range
func (c *Column) Storage() StorageClass { return storageClassOf(c.id) }

//IsMultiValued reports columns declared to hold several values
func (c *Column) IsMultiValued() bool { return c.flags&ColumnFlagMultiValued != 0 }

//FromTemplate reports a column inherited from the table's template
func (c *Column) FromTemplate() bool { return c.template }

func (c *Column) String() string {
	return c.name + " (" + c.typ.String() + ")"
}
